package app

import (
	"strconv"

	"unimind_backend/internal/config"
	"unimind_backend/internal/middleware"
	"unimind_backend/internal/model"
	"unimind_backend/internal/util"
	"unimind_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.GET("/courses", c.course.ListCourses)
		authGroup.GET("/courses/:code/topics", c.course.ListTopics)
		authGroup.GET("/courses/:code/overview", c.course.GetOverview)

		// 门控接口作用于当前登录用户
		gate := authGroup.Group("/gate")
		gate.Use(
			middleware.RoleMiddleware(model.Student),
			a.newLimiter(cfg.RateLimit.GateMaxRequests, cfg.RateLimit.Window()).Middleware(userKey),
		)
		{
			gate.GET("/question", c.gate.GetQuestion)
			gate.POST("/answer", c.gate.SubmitAnswer)
		}

		a.registerStudentRoutes(authGroup, c)
	}
}

// userKey 按登录用户限流，未登录时退回客户端 IP
func userKey(c *gin.Context) string {
	if claims := util.GetUserFromContext(c); claims != nil {
		return "user:" + strconv.FormatUint(uint64(claims.UserID), 10)
	}
	return c.ClientIP()
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	student := rg.Group("/students/:userId")
	student.Use(middleware.SelfOrAdmin("userId"))
	{
		student.POST("/attempts", c.student.SubmitAttempt)
		student.GET("/attempts", c.student.ListAttempts)
		student.PATCH("/profile", c.auth.UpdateProfile)
		student.GET("/progress", c.student.GetProgress)
		student.GET("/progress/:topicId", c.student.GetTopicProgress)
		student.GET("/priority-topics", c.student.GetPriorityTopics)
		student.GET("/streak", c.student.GetStreak)
		student.GET("/review-questions", c.student.GetReviewQuestions)
		student.GET("/today-stats", c.student.GetTodayStats)

		// 选课
		student.GET("/enrolments", c.course.ListEnrolments)
		student.POST("/enrolments", c.course.Enrol)
		student.DELETE("/enrolments/:code", c.course.Unenrol)

		// 屏蔽站点
		student.GET("/blocked-sites", c.blockedSite.ListBlockedSites)
		student.POST("/blocked-sites", c.blockedSite.AddBlockedSite)
		student.DELETE("/blocked-sites/:siteId", c.blockedSite.RemoveBlockedSite)
	}
}
