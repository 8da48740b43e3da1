package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/util"
)

type BlockedSiteService struct {
	Sites *repository.BlockedSiteRepository
}

func NewBlockedSiteService(sites *repository.BlockedSiteRepository) *BlockedSiteService {
	return &BlockedSiteService{Sites: sites}
}

// NormalizeDomain 统一为小写主机名，去掉协议、路径、端口和 www. 前缀
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	return strings.TrimPrefix(host, "www.")
}

func (s *BlockedSiteService) List(ctx context.Context, userID uint) ([]model.BlockedSite, error) {
	return s.Sites.List(ctx, userID)
}

func (s *BlockedSiteService) Add(ctx context.Context, userID uint, domain string) (*model.BlockedSite, error) {
	d := NormalizeDomain(domain)
	if d == "" || len(d) > 255 {
		return nil, fmt.Errorf("%w: domain", util.ErrInvalidInput)
	}
	site := &model.BlockedSite{UserID: userID, Domain: d}
	if err := s.Sites.Add(ctx, site); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, util.ErrBlockedSiteExists
		}
		return nil, err
	}
	return site, nil
}

func (s *BlockedSiteService) Remove(ctx context.Context, userID, siteID uint) error {
	removed, err := s.Sites.Remove(ctx, userID, siteID)
	if err != nil {
		return err
	}
	if !removed {
		return util.ErrBlockedSiteNotFound
	}
	return nil
}
