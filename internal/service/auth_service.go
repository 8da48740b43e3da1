package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || len(user.Password) < 6 {
		return fmt.Errorf("%w: email and a password of at least 6 characters are required", util.ErrInvalidInput)
	}

	_, err := s.UserRepo.FindByEmail(ctx, user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	if user.Role == "" {
		user.Role = model.Student
	}
	return s.UserRepo.Create(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, util.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	_ = s.UserRepo.TouchLastLogin(ctx, user.ID, time.Now())
	return token, user, nil
}

func (s *AuthService) IssueToken(user *model.User) (string, error) {
	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput 仅更新非 nil 字段
type UpdateProfileInput struct {
	Name     *string
	Email    *string
	Timezone *string
}

// UpdateProfile 修改昵称、邮箱或时区，邮箱统一小写且不可与他人重复
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be blank", util.ErrInvalidInput)
		}
		fields["name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, fmt.Errorf("%w: email must not be blank", util.ErrInvalidInput)
		}
		if email != user.Email {
			other, err := s.UserRepo.FindByEmail(ctx, email)
			if err == nil && other.ID != userID {
				return nil, util.ErrEmailRegistered
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			fields["email"] = email
		}
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return nil, fmt.Errorf("%w: unknown timezone %q", util.ErrInvalidInput, tz)
			}
		}
		fields["timezone"] = tz
	}

	if len(fields) > 0 {
		if err := s.UserRepo.Update(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}
