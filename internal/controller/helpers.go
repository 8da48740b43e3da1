package controller

import (
	"unimind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// pathUserID 读取 :userId，路由已经过 SelfOrAdmin 校验
func pathUserID(ctx *gin.Context) uint {
	return util.MustParseUint(ctx.Param("userId"))
}

// tokenUserID 当前登录用户
func tokenUserID(ctx *gin.Context) uint {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}
