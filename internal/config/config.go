package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DBPath      string
	TokenSecret string
	AdminSecret string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	BcryptCost  int
	RateLimits  RateLimits
}

type RateLimits struct {
	AuthPerMinute    int
	PostPerMinute    int
	CommentPerMinute int
	SocialPerMinute  int
}

func Load() Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	addr := envString("FRIENDLOG_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:        addr,
		DBPath:      envString("FRIENDLOG_DB", "friendlog.db"),
		TokenSecret: envString("FRIENDLOG_TOKEN_SECRET", "dev-token-secret"),
		AdminSecret: envString("FRIENDLOG_ADMIN_SECRET", "dev-admin-secret"),
		AccessTTL:   envDuration("FRIENDLOG_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:  envDuration("FRIENDLOG_REFRESH_TTL", 168*time.Hour),
		BcryptCost:  envInt("FRIENDLOG_BCRYPT_COST", 10),
		RateLimits: RateLimits{
			AuthPerMinute:    envInt("FRIENDLOG_RL_AUTH_PER_MIN", 10),
			PostPerMinute:    envInt("FRIENDLOG_RL_POST_PER_MIN", 15),
			CommentPerMinute: envInt("FRIENDLOG_RL_COMMENT_PER_MIN", 30),
			SocialPerMinute:  envInt("FRIENDLOG_RL_SOCIAL_PER_MIN", 60),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
