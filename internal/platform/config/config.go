package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	Port         string `env:"PORT" default:"2442"`
	PublicURL    string `env:"PUBLIC_URL" default:"http://localhost:2442"`
	DataDir      string `env:"DATA_DIR" default:"./data"`
	StoreBackend string `env:"STORE_BACKEND" default:"file"`
	RedisURL     string `env:"REDIS_URL"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"pretty"`

	// AllowedOrigins is a comma separated list of origins the overlay socket
	// accepts besides OBS and loopback; "*" accepts any origin.
	AllowedOrigins string `env:"ALLOWED_ORIGINS" default:"*"`

	SessionSecret       string `env:"SESSION_SECRET"`
	TwitchRedirectURI   string `env:"TWITCH_REDIRECT_URI"`
	TwitchWebhookSecret string `env:"TWITCH_WEBHOOK_SECRET"`

	// TokenEncryptionKey seals the credential secrets in Redis. Hex encoded
	// AES key; the file backend ignores it.
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`

	TokenValidateInterval time.Duration `env:"TOKEN_VALIDATE_INTERVAL" default:"1h"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	NowPlayingRateLimit float64 `env:"NOW_PLAYING_RATE_LIMIT" default:"20"`
	NowPlayingBurst     int     `env:"NOW_PLAYING_BURST" default:"40"`
}

// devSessionSecret keeps the OAuth state cookie working out of the box on a
// local machine. Production deployments must set SESSION_SECRET.
const devSessionSecret = "obs-ui-development-session-secret"

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.TwitchRedirectURI == "" {
		cfg.TwitchRedirectURI = strings.TrimSuffix(cfg.PublicURL, "/") + "/twitch-callback"
	}
	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		cfg.SessionSecret = devSessionSecret
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Origins() []string {
	var origins []string
	for origin := range strings.SplitSeq(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *Config) WebhookEnabled() bool {
	return c.TwitchWebhookSecret != ""
}

func validate(cfg *Config) error {
	required := map[string]string{
		"PORT":           cfg.Port,
		"DATA_DIR":       cfg.DataDir,
		"SESSION_SECRET": cfg.SessionSecret,
	}
	if cfg.StoreBackend == StoreBackendRedis {
		required["REDIS_URL"] = cfg.RedisURL
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	switch cfg.StoreBackend {
	case StoreBackendFile, StoreBackendRedis:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendFile, StoreBackendRedis, cfg.StoreBackend)
	}

	if _, err := url.ParseRequestURI(cfg.TwitchRedirectURI); err != nil {
		return fmt.Errorf("TWITCH_REDIRECT_URI must be an absolute URL: %w", err)
	}

	if cfg.WebhookEnabled() && (len(cfg.TwitchWebhookSecret) < 10 || len(cfg.TwitchWebhookSecret) > 100) {
		return errors.New("TWITCH_WEBHOOK_SECRET must be between 10 and 100 characters")
	}

	if cfg.TokenEncryptionKey != "" {
		if _, err := hex.DecodeString(cfg.TokenEncryptionKey); err != nil || !slices.Contains([]int{32, 48, 64}, len(cfg.TokenEncryptionKey)) {
			return errors.New("TOKEN_ENCRYPTION_KEY must be a hex encoded 16, 24 or 32 byte key")
		}
	}

	if cfg.TokenValidateInterval < time.Minute {
		return fmt.Errorf("TOKEN_VALIDATE_INTERVAL must be at least 1m, got %s", cfg.TokenValidateInterval)
	}

	if cfg.NowPlayingRateLimit <= 0 || cfg.NowPlayingBurst <= 0 {
		return errors.New("NOW_PLAYING_RATE_LIMIT and NOW_PLAYING_BURST must be positive")
	}

	return nil
}
