package controller

import (
	"context"
	"net/http"
	"time"

	"unimind_backend/internal/service"
	"unimind_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// Dependency 健康检查中的一个外部依赖
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

func DatabaseDependency(db *gorm.DB) Dependency {
	return Dependency{Name: "database", Ping: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

func RedisDependency(rdb *redis.Client) Dependency {
	return Dependency{Name: "redis", Ping: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

type HealthController struct {
	Tunables     *service.Tunables
	LockBackend  string
	Dependencies []Dependency
}

func NewHealthController(tunables *service.Tunables, lockBackend string, deps ...Dependency) *HealthController {
	if lockBackend == "" {
		lockBackend = "local"
	}
	return &HealthController{Tunables: tunables, LockBackend: lockBackend, Dependencies: deps}
}

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status      string            `json:"status"`
	Components  map[string]string `json:"components"`
	LockBackend string            `json:"lock_backend"`
	Timezone    string            `json:"timezone"`
	Date        string            `json:"date"`
}

// @Summary 健康检查
// @Description 依次检查数据库与 Redis，任一不可用时返回 503 和 degraded
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response{data=HealthStatus}
// @Failure 503 {object} util.Response{data=HealthStatus}
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthTimeout)
	defer cancel()

	sched := c.Tunables.Scheduler()
	status := HealthStatus{
		Status:      "ok",
		Components:  make(map[string]string, len(c.Dependencies)),
		LockBackend: c.LockBackend,
		Timezone:    sched.Location.String(),
		Date:        sched.Today(time.Now()),
	}
	for _, dep := range c.Dependencies {
		if err := dep.Ping(pingCtx); err != nil {
			status.Components[dep.Name] = "down"
			status.Status = "degraded"
			continue
		}
		status.Components[dep.Name] = "up"
	}

	if status.Status != "ok" {
		ctx.JSON(http.StatusServiceUnavailable, util.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "degraded",
			Data:    status,
		})
		return
	}
	util.Success(ctx, status)
}
