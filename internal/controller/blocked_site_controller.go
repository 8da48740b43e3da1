package controller

import (
	"unimind_backend/internal/service"
	"unimind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BlockedSiteController struct {
	BlockedSiteService *service.BlockedSiteService
}

func NewBlockedSiteController(blockedSiteService *service.BlockedSiteService) *BlockedSiteController {
	return &BlockedSiteController{BlockedSiteService: blockedSiteService}
}

// BlockedSiteRequest 屏蔽站点请求，domain 可以是完整 URL
type BlockedSiteRequest struct {
	Domain string `json:"domain" binding:"required"`
}

// ListBlockedSites godoc
// @Summary 屏蔽站点列表
// @Tags 屏蔽站点
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Success 200 {object} util.Response{data=[]model.BlockedSite}
// @Router /api/students/{userId}/blocked-sites [get]
func (c *BlockedSiteController) ListBlockedSites(ctx *gin.Context) {
	sites, err := c.BlockedSiteService.List(ctx.Request.Context(), pathUserID(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, sites)
}

// AddBlockedSite godoc
// @Summary 添加屏蔽站点
// @Tags 屏蔽站点
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param body body BlockedSiteRequest true "站点"
// @Success 201 {object} util.Response{data=model.BlockedSite}
// @Failure 409 {object} util.Response "站点已存在"
// @Router /api/students/{userId}/blocked-sites [post]
func (c *BlockedSiteController) AddBlockedSite(ctx *gin.Context) {
	var req BlockedSiteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	site, err := c.BlockedSiteService.Add(ctx.Request.Context(), pathUserID(ctx), req.Domain)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, site)
}

// RemoveBlockedSite godoc
// @Summary 删除屏蔽站点
// @Tags 屏蔽站点
// @Produce  json
// @Security ApiKeyAuth
// @Param userId path int true "学生ID"
// @Param siteId path int true "站点ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "站点不存在"
// @Router /api/students/{userId}/blocked-sites/{siteId} [delete]
func (c *BlockedSiteController) RemoveBlockedSite(ctx *gin.Context) {
	siteID := util.MustParseUint(ctx.Param("siteId"))
	if siteID == 0 {
		util.BadRequest(ctx, "invalid site id")
		return
	}
	if err := c.BlockedSiteService.Remove(ctx.Request.Context(), pathUserID(ctx), siteID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
