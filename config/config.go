package config

import (
	"fmt"
	"time"

	"github.com/example/delivery-rider/pkg/configparser"
)

// Config contains all configuration variables of the application
type (
	Config struct {
		LogLevel string `env:"LOG_LEVEL" default:"INFO"`

		Backend    BackendConfig
		TokenStore TokenStoreConfig
		Feed       FeedConfig
		Debug      DebugConfig
		Dev        DevConfig
	}

	// BackendConfig points the client at the delivery backend.
	BackendConfig struct {
		BaseURL string        `env:"BACKEND_BASE_URL" default:"http://localhost:3000"`
		Timeout time.Duration `env:"BACKEND_TIMEOUT" default:"10s"`

		// TokenLeeway is how close to its exp claim an access token is
		// still trusted. Tokens expiring within the leeway are renewed
		// before dispatch.
		TokenLeeway time.Duration `env:"BACKEND_TOKEN_LEEWAY" default:"30s"`
	}

	// TokenStoreConfig configures the encrypted on-device token file.
	TokenStoreConfig struct {
		Path   string `env:"TOKEN_STORE_PATH" default:"rider_tokens.bin"`
		Secret string `env:"TOKEN_STORE_SECRET" default:"change-me-device-secret"`
	}

	FeedConfig struct {
		URL        string        `env:"FEED_URL" default:"ws://localhost:3000/ws/orders"`
		MinBackoff time.Duration `env:"FEED_MIN_BACKOFF" default:"1s"`
		MaxBackoff time.Duration `env:"FEED_MAX_BACKOFF" default:"30s"`
	}

	// DebugConfig is the local observability endpoint (metrics, health,
	// state snapshot).
	DebugConfig struct {
		Addr string `env:"DEBUG_ADDR" default:"localhost:6060"`
	}

	// DevConfig drives the development backend binary.
	DevConfig struct {
		Addr            string        `env:"DEV_ADDR" default:"localhost:3000"`
		JWTSecret       string        `env:"DEV_JWT_SECRET" default:"supersecretkey"`
		AccessTokenTTL  time.Duration `env:"DEV_ACCESS_TOKEN_TTL" default:"15m"`
		RefreshTokenTTL time.Duration `env:"DEV_REFRESH_TOKEN_TTL" default:"168h"`
		OrderInterval   time.Duration `env:"DEV_ORDER_INTERVAL" default:"7s"`
	}
)

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.Load(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	return cfg, nil
}
