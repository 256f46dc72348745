package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	StaticFilesPath string
	UploadMaxSize   int64

	LogLevel  string
	LogFormat string

	// Player identity cookie
	TokenSecret   string
	TokenDuration time.Duration

	// Round settings
	RoundSize         int
	MismatchPenalty   int // points lost per failed attempt; 0 keeps the score monotonic
	DefaultDifficulty string
	ErrorFlash        time.Duration
	RestartDelay      time.Duration
	TimerInterval     time.Duration

	// Rate limiting for uploads and e-mail
	RateLimit       int
	RateLimitWindow time.Duration

	// Pronunciation audio
	AudioEnabled bool
	AudioPath    string

	// Amazon SES
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	Debug        bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:        getEnv("PORT", "8080"),
		DatabaseType:      getEnv("DB_TYPE", "sqlite"),
		DatabasePath:      getEnv("DB_PATH", "./wordmatch.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "./migrations"),
		StaticFilesPath:   getEnv("STATIC_PATH", "./static"),
		UploadMaxSize:     5 * 1024 * 1024, // 5MB
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TokenDuration:     365 * 24 * time.Hour,
		DefaultDifficulty: getEnv("DEFAULT_DIFFICULTY", "off"),
		AudioPath:         getEnv("AUDIO_PATH", "./data/audio"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:      os.Getenv("SES_FROM_EMAIL"),
		SESFromName:       getEnv("SES_FROM_NAME", "WordMatch"),
	}

	var err error
	if cfg.RoundSize, err = getEnvInt("ROUND_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.MismatchPenalty, err = getEnvInt("MISMATCH_PENALTY", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.ErrorFlash, err = getEnvDuration("ERROR_FLASH", time.Second); err != nil {
		return nil, err
	}
	if cfg.RestartDelay, err = getEnvDuration("RESTART_DELAY", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.TimerInterval, err = getEnvDuration("TIMER_INTERVAL", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.AudioEnabled, err = getEnvBool("AUDIO_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getEnvBool("DEBUG", false); err != nil {
		return nil, err
	}

	if cfg.RoundSize < 1 {
		return nil, fmt.Errorf("invalid ROUND_SIZE %d: must be positive", cfg.RoundSize)
	}
	if cfg.MismatchPenalty < 0 {
		return nil, fmt.Errorf("invalid MISMATCH_PENALTY %d: must not be negative", cfg.MismatchPenalty)
	}
	switch strings.ToLower(cfg.DatabaseType) {
	case "postgres", "postgresql", "mysql":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_TYPE=%s", cfg.DatabaseType)
		}
	}
	if cfg.TokenSecret == "" {
		// Tokens signed with the fallback secret do not survive a change of deployment.
		cfg.TokenSecret = "wordmatch-dev-secret"
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
