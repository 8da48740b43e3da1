package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"unimind_backend/internal/scheduler"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Gate      GateConfig      `mapstructure:"gate"`
	Lock      LockConfig      `mapstructure:"lock"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
	Seed        bool `mapstructure:"-"` // 写入示例课程数据
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`

	// 门控接口按用户单独限流，0 表示不限
	GateMaxRequests int `mapstructure:"gate_max_requests"`
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMinutes) * time.Minute
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"` // mysql | sqlite
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	Charset    string
	ParseTime  bool
	SQLitePath string `mapstructure:"sqlite_path"`
	LogLevel   string `mapstructure:"log_level"` // silent | error | warn | info
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	Host           string
	Port           int
	Password       string
	DB             int
	PoolSize       int `mapstructure:"pool_size"`
	ConnectRetries int `mapstructure:"connect_retries"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SchedulerConfig 调度器可调参数，未配置的项使用默认值；指针区分"未配置"和显式的 0
type SchedulerConfig struct {
	DefaultRating        *float64           `mapstructure:"default_rating"`
	CorrectGain          *float64           `mapstructure:"correct_gain"`
	IncorrectPenalty     *float64           `mapstructure:"incorrect_penalty"`
	DifficultyWeights    map[string]float64 `mapstructure:"difficulty_weights"`
	FastAnswer           *time.Duration     `mapstructure:"fast_answer"`
	SlowAnswer           *time.Duration     `mapstructure:"slow_answer"`
	SlowAnswerDamping    *float64           `mapstructure:"slow_answer_damping"`
	EMAAlpha             *float64           `mapstructure:"ema_alpha"`
	InitialAccuracy      *float64           `mapstructure:"initial_accuracy"`
	DefaultInterval      *time.Duration     `mapstructure:"default_interval"`
	CorrectMultiplier    *float64           `mapstructure:"correct_multiplier"`
	MinCorrectInterval   *time.Duration     `mapstructure:"min_correct_interval"`
	IncorrectMultiplier  *float64           `mapstructure:"incorrect_multiplier"`
	MinIncorrectInterval *time.Duration     `mapstructure:"min_incorrect_interval"`
	RecencyWindow        *time.Duration     `mapstructure:"recency_window"`
	CandidateWindow      *int               `mapstructure:"candidate_window"`
	Timezone             string             `mapstructure:"timezone"`
}

// GateConfig 访问门控：答对解锁时长与答错锁定时长
type GateConfig struct {
	UnlockDuration time.Duration `mapstructure:"unlock_duration"`
	LockoutSeconds int           `mapstructure:"lockout_seconds"`
	RandomSeed     int64         `mapstructure:"random_seed"` // 0 表示按时间播种
}

type LockConfig struct {
	Backend string        `mapstructure:"backend"` // local | redis
	TTL     time.Duration `mapstructure:"ttl"`
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.parsetime", true)
	viper.SetDefault("database.sqlite_path", "unimind.db")
	viper.SetDefault("database.log_level", "warn")
	viper.SetDefault("jwt.expire_hours", 72)
	viper.SetDefault("log.file", "logs/app.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("rate_limit.max_requests", 300)
	viper.SetDefault("rate_limit.window_minutes", 1)
	viper.SetDefault("rate_limit.gate_max_requests", 60)
	viper.SetDefault("scheduler.timezone", "UTC")
	viper.SetDefault("gate.unlock_duration", time.Hour)
	viper.SetDefault("gate.lockout_seconds", 30)
	viper.SetDefault("lock.backend", "local")
	viper.SetDefault("lock.ttl", 10*time.Second)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("UNIMIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	// Database
	viper.BindEnv("database.driver", "DATABASE_DRIVER")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if _, err := cfg.SchedulerTunables(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SchedulerTunables overlays the configured scheduler keys on scheduler.DefaultConfig and
// validates the result. Difficulty weights are merged per difficulty.
func (c *Config) SchedulerTunables() (scheduler.Config, error) {
	s := c.Scheduler
	out := scheduler.DefaultConfig()

	setFloat(&out.DefaultRating, s.DefaultRating)
	setFloat(&out.CorrectGain, s.CorrectGain)
	setFloat(&out.IncorrectPenalty, s.IncorrectPenalty)
	setDuration(&out.FastAnswer, s.FastAnswer)
	setDuration(&out.SlowAnswer, s.SlowAnswer)
	setFloat(&out.SlowAnswerDamping, s.SlowAnswerDamping)
	setFloat(&out.EMAAlpha, s.EMAAlpha)
	setFloat(&out.InitialAccuracy, s.InitialAccuracy)
	setDuration(&out.DefaultInterval, s.DefaultInterval)
	setFloat(&out.CorrectMultiplier, s.CorrectMultiplier)
	setDuration(&out.MinCorrectInterval, s.MinCorrectInterval)
	setFloat(&out.IncorrectMultiplier, s.IncorrectMultiplier)
	setDuration(&out.MinIncorrectInterval, s.MinIncorrectInterval)
	setDuration(&out.RecencyWindow, s.RecencyWindow)
	if s.CandidateWindow != nil {
		out.CandidateWindow = *s.CandidateWindow
	}
	for k, w := range s.DifficultyWeights {
		out.DifficultyWeights[scheduler.ParseDifficulty(k)] = w
	}

	if s.Timezone != "" {
		loc, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("scheduler timezone %q: %w", s.Timezone, err)
		}
		out.Location = loc
	}
	if err := out.Validate(); err != nil {
		return scheduler.Config{}, err
	}
	return out, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}
