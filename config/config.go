package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Contest      ContestConfig      `mapstructure:"contest"`
	Upload       UploadConfig       `mapstructure:"upload"`
	Vote         VoteConfig         `mapstructure:"vote"`
	Storage      StorageConfig      `mapstructure:"storage"`
	GalleryCache GalleryCacheConfig `mapstructure:"gallery_cache"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret      string   `mapstructure:"jwt_secret"`
	Issuer         string   `mapstructure:"issuer"`
	Audience       string   `mapstructure:"audience"`
	CookieName     string   `mapstructure:"cookie_name"`
	CookieSecure   bool     `mapstructure:"cookie_secure"`
	ReviewerIDs    []string `mapstructure:"reviewer_ids"`
	LoginPath      string   `mapstructure:"login_path"`
	ProtectedPaths []string `mapstructure:"protected_paths"`
	// AddressSalt 对来源地址做带密钥哈希后再作为限流 key
	AddressSalt string `mapstructure:"address_salt"`
}

type ContestConfig struct {
	Deadline string `mapstructure:"deadline"` // RFC3339
}

// DeadlineTime 解析截止时间
func (c ContestConfig) DeadlineTime() (time.Time, error) {
	return time.Parse(time.RFC3339, c.Deadline)
}

type UploadConfig struct {
	MaxFiles             int             `mapstructure:"max_files"`
	MaxFileBytes         int64           `mapstructure:"max_file_bytes"`
	AllowedTypes         []string        `mapstructure:"allowed_types"`
	MaxWidth             int             `mapstructure:"max_width"`
	Quality              float32         `mapstructure:"quality"`
	KeyPrefix            string          `mapstructure:"key_prefix"`
	TranscodeConcurrency int64           `mapstructure:"transcode_concurrency"`
	RateLimit            RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Backend  string        `mapstructure:"backend"` // memory | redis
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type VoteConfig struct {
	ThrottlePerSecond float64 `mapstructure:"throttle_per_second"`
	ThrottleBurst     int     `mapstructure:"throttle_burst"`
}

type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // s3 | local
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	LocalDir        string `mapstructure:"local_dir"`
}

type GalleryCacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "contest.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("auth.cookie_name", "sb-access-token")
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("auth.login_path", "/")
	v.SetDefault("auth.protected_paths", []string{"/submit", "/inbox"})

	v.SetDefault("contest.deadline", "2026-02-14T00:00:00+08:00")

	v.SetDefault("upload.max_files", 6)
	v.SetDefault("upload.max_file_bytes", 5<<20)
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/webp"})
	v.SetDefault("upload.max_width", 1600)
	v.SetDefault("upload.quality", 82)
	v.SetDefault("upload.key_prefix", "useful")
	v.SetDefault("upload.transcode_concurrency", 2)
	v.SetDefault("upload.rate_limit.backend", "memory")
	v.SetDefault("upload.rate_limit.requests", 20)
	v.SetDefault("upload.rate_limit.window", time.Minute)

	v.SetDefault("vote.throttle_per_second", 2)
	v.SetDefault("vote.throttle_burst", 5)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.local_dir", "media")
	v.SetDefault("storage.public_base_url", "http://localhost:8080/media")

	v.SetDefault("gallery_cache.ttl", 5*time.Second)

	v.SetDefault("tracing.service_name", "gin-contest")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load 读取配置：.env → config.yaml → CONTEST_* 环境变量
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if len(paths) > 0 && paths[0] != "" {
		v.SetConfigFile(paths[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CONTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验必填项与数值范围
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if _, err := c.Contest.DeadlineTime(); err != nil {
		return fmt.Errorf("contest.deadline: %w", err)
	}
	if c.Upload.MaxFiles <= 0 || c.Upload.MaxFileBytes <= 0 || c.Upload.MaxWidth <= 0 {
		return errors.New("upload limits must be positive")
	}
	if c.Upload.RateLimit.Requests <= 0 || c.Upload.RateLimit.Window <= 0 {
		return errors.New("upload.rate_limit requests and window must be positive")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.Bucket == "" || c.Storage.PublicBaseURL == "" {
			return errors.New("storage.bucket and storage.public_base_url are required for s3")
		}
	case "local":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Upload.RateLimit.Backend == "redis" && !c.Redis.Enabled {
		return errors.New("upload.rate_limit.backend=redis requires redis.enabled")
	}
	return nil
}
