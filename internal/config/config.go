package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret     string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration

	BcryptCost int

	AllowedEmailDomains []string

	WeChatAppID     string
	WeChatAppSecret string
	WeChatAPIBase   string
	WeChatTimeout   time.Duration

	AvatarRoot    string
	MaxAvatarSize int64

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 15*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 2)),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 72*time.Hour),
		JWTRefreshTTL:           getDuration("JWT_REFRESH_TTL", 720*time.Hour),
		BcryptCost:              getInt("BCRYPT_COST", 12),
		AllowedEmailDomains:     splitCSV(getEnv("ALLOWED_EMAIL_DOMAINS", "sustech.edu.cn,mail.sustech.edu.cn")),
		WeChatAppID:             strings.TrimSpace(os.Getenv("WECHAT_APP_ID")),
		WeChatAppSecret:         strings.TrimSpace(os.Getenv("WECHAT_APP_SECRET")),
		WeChatAPIBase:           getEnv("WECHAT_API_BASE", "https://api.weixin.qq.com"),
		WeChatTimeout:           getDuration("WECHAT_TIMEOUT", 5*time.Second),
		AvatarRoot:              getEnv("AVATAR_ROOT", "./state/avatars"),
		MaxAvatarSize:           getInt64("MAX_AVATAR_SIZE", 5*1024*1024),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 10 and 14")
	}

	if len(c.AllowedEmailDomains) == 0 {
		return fmt.Errorf("ALLOWED_EMAIL_DOMAINS cannot be empty")
	}

	if c.WeChatTimeout <= 0 {
		return fmt.Errorf("WECHAT_TIMEOUT must be positive")
	}

	if c.MaxAvatarSize <= 0 {
		return fmt.Errorf("MAX_AVATAR_SIZE must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
