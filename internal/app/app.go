package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"unimind_backend/internal/config"
	"unimind_backend/internal/controller"
	"unimind_backend/internal/middleware"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/scheduler"
	"unimind_backend/internal/service"
	"unimind_backend/pkg/database"
	"unimind_backend/pkg/keylock"
	"unimind_backend/pkg/logger"
	"unimind_backend/pkg/monitoring"
	"unimind_backend/pkg/security"
	"unimind_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Tunables        *service.Tunables
	tracer          *sdktrace.TracerProvider
	limiters        []*security.Limiter
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	question    *repository.QuestionRepository
	attempt     *repository.AttemptRepository
	mastery     *repository.MasteryRepository
	metric      *repository.MetricRepository
	streak      *repository.StreakRepository
	blockedSite *repository.BlockedSiteRepository
}

type services struct {
	auth        *service.AuthService
	course      *service.CourseService
	attempt     *service.AttemptService
	gate        *service.GateService
	progress    *service.ProgressService
	blockedSite *service.BlockedSiteService
}

type controllers struct {
	auth        *controller.AuthController
	course      *controller.CourseController
	gate        *controller.GateController
	student     *controller.StudentController
	blockedSite *controller.BlockedSiteController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件变更后回调，只有调度参数和门控策略支持热更新
func (a *App) ApplyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		question:    repository.NewQuestionRepository(db),
		attempt:     repository.NewAttemptRepository(db),
		mastery:     repository.NewMasteryRepository(db),
		metric:      repository.NewMetricRepository(db),
		streak:      repository.NewStreakRepository(db),
		blockedSite: repository.NewBlockedSiteRepository(db),
	}
}

func (a *App) initLocker(cfg *config.Config, rdb *redis.Client) (keylock.Locker, error) {
	switch strings.ToLower(cfg.Lock.Backend) {
	case "", "local":
		return keylock.NewLocal(), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("lock backend redis requires redis.enabled")
		}
		return keylock.NewRedis(rdb,
			keylock.WithTTL(cfg.Lock.TTL),
			keylock.OnLost(func(key string) {
				logger.Log.Warn("attempt lock expired before release", zap.String("key", key))
			}),
		), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, locker keylock.Locker) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(repos.course)
	s.attempt = service.NewAttemptService(
		db,
		repos.question,
		repos.attempt,
		repos.mastery,
		repos.metric,
		repos.streak,
		locker,
		a.Tunables,
	)

	var selector *scheduler.Selector
	if cfg.Gate.RandomSeed != 0 {
		selector = scheduler.NewSeededSelector(cfg.Gate.RandomSeed)
	} else {
		selector = scheduler.NewSelector(nil)
	}
	s.gate = service.NewGateService(repos.course, repos.question, repos.mastery, s.attempt, selector, a.Tunables)
	s.progress = service.NewProgressService(
		repos.course,
		repos.question,
		repos.attempt,
		repos.mastery,
		repos.metric,
		repos.streak,
		a.Tunables,
	)
	s.blockedSite = service.NewBlockedSiteService(repos.blockedSite)

	return s
}

func (a *App) initControllers(s *services, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *controllers {
	deps := []controller.Dependency{controller.DatabaseDependency(db)}
	if rdb != nil {
		deps = append(deps, controller.RedisDependency(rdb))
	}

	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		course:      controller.NewCourseController(s.course, s.progress),
		gate:        controller.NewGateController(s.gate),
		student:     controller.NewStudentController(s.attempt, s.progress),
		blockedSite: controller.NewBlockedSiteController(s.blockedSite),
		health:      controller.NewHealthController(a.Tunables, cfg.Lock.Backend, deps...),
	}
}

// newLimiter 创建限流器并登记，关闭服务时统一停止
func (a *App) newLimiter(maxRequests int, window time.Duration) *security.Limiter {
	l := security.NewLimiter(maxRequests, window)
	if l != nil {
		a.limiters = append(a.limiters, l)
	}
	return l
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.newLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()).Middleware(security.ByClientIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 使用已建立的连接装配应用，rdb 可为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	sched, err := cfg.SchedulerTunables()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Tunables: service.NewTunables(sched, cfg.Gate),
	}

	locker, err := app.initLocker(cfg, rdb)
	if err != nil {
		return nil, err
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, locker)
	controllers := app.initControllers(services, cfg, db, rdb)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		sched, err := newCfg.SchedulerTunables()
		if err != nil {
			logger.Log.Error("Rejected reloaded scheduler config", zap.Error(err))
			return
		}
		app.Tunables.Update(sched, newCfg.Gate)
		logger.Log.Info("Scheduler config reloaded",
			zap.String("timezone", sched.Location.String()),
			zap.Duration("unlockDuration", newCfg.Gate.UnlockDuration))
	})

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app, nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.Seed {
		if err := database.Seed(context.Background(), db); err != nil {
			logger.Log.Fatal("Failed to seed database", zap.Error(err))
		}
		logger.Log.Info("Demo course seeded")
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app, err := New(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to build application", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("unimind", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	for _, l := range a.limiters {
		l.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
