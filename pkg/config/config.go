package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var (
	AppEnv       string
	IsStaging    bool
	IsProduction bool

	JWTSecret string
	Port      string

	// database
	DBDriver string
	DBDSN    string

	// logging
	LogLevel  string
	LogFormat string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	UserConcurrencyLimit   int
	DuplicateWindowSeconds int
	BlockCacheTTLSeconds   int
	BlockCacheMaxItems     int
	MessagesPerPage        int
)

// loadAppEnv loads .env outside production. A missing file is not fatal so
// the process can run on host environment alone.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "production" {
		return
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}
}

// Load reads configuration from the environment into the package variables.
func Load() error {
	loadAppEnv()

	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "staging"
	}
	if !slices.Contains([]string{"staging", "production"}, AppEnv) {
		return fmt.Errorf("environment variable APP_ENV must be 'staging' or 'production', got %q", AppEnv)
	}
	IsStaging = AppEnv == "staging"
	IsProduction = AppEnv == "production"

	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	DBDriver = strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	if DBDriver == "" {
		DBDriver = "sqlite"
	}
	DBDSN = os.Getenv("DB_DSN")
	if DBDSN == "" && DBDriver == "sqlite" {
		DBDSN = "app.db?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	}

	LogLevel = os.Getenv("LOG_LEVEL")
	if LogLevel == "" {
		LogLevel = "info"
	}
	LogFormat = os.Getenv("LOG_FORMAT")
	if LogFormat == "" {
		LogFormat = "console"
	}

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	UserConcurrencyLimit = atoiOr(os.Getenv("USER_CONCURRENCY_LIMIT"), 2)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	BlockCacheTTLSeconds = atoiOr(os.Getenv("BLOCK_CACHE_TTL_SECONDS"), 30)
	BlockCacheMaxItems = atoiOr(os.Getenv("BLOCK_CACHE_MAX_ITEMS"), 500)
	MessagesPerPage = atoiOr(os.Getenv("MESSAGES_PER_PAGE"), 50)

	if IsProduction && JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	if JWTSecret == "" {
		JWTSecret = "staging-secret"
		log.Warn().Msg("JWT_SECRET_KEY not set, using staging default")
	}
	if DBDSN == "" {
		return fmt.Errorf("DB_DSN must be set for driver %q", DBDriver)
	}

	log.Info().
		Str("env", AppEnv).
		Str("db_driver", DBDriver).
		Str("port", Port).
		Msg("config loaded")
	log.Debug().
		Int("rate_window_s", RateLimitWindowSeconds).
		Int("rate_capacity", RateLimitCapacity).
		Int("user_concurrency", UserConcurrencyLimit).
		Int("dup_window_s", DuplicateWindowSeconds).
		Int("block_cache_ttl_s", BlockCacheTTLSeconds).
		Int("messages_per_page", MessagesPerPage).
		Msg("runtime tunables")
	return nil
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
