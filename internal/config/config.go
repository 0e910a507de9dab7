package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	GRPC     GRPCConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
	Log      LogConfig
	Geocoder GeocoderConfig
	Routing  RoutingConfig
	Redis    RedisConfig
	Shop     ShopConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `envconfig:"DB_PATH" default:"sushi.db"` // SQLite database file path
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `envconfig:"GRPC_ADDRESS" default:"127.0.0.1:50051"`
}

// HTTPConfig contains settings for the presentation-facing HTTP API.
type HTTPConfig struct {
	Address string `envconfig:"HTTP_ADDRESS" default:"127.0.0.1:8080"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET"` // JWT signing secret
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"` // json | text
}

// GeocoderConfig points at a Nominatim-compatible search endpoint.
type GeocoderConfig struct {
	URL       string        `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent string        `envconfig:"GEOCODER_USER_AGENT" default:"sushi-delivery/1.0"`
	Viewbox   string        `envconfig:"GEOCODER_VIEWBOX" default:"-73.2,-41.7,-72.7,-41.3"`
	Timeout   time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"6s"`
	Resolve   time.Duration `envconfig:"RESOLVE_TIMEOUT" default:"20s"` // bound on all tiers together
	Debounce  time.Duration `envconfig:"DEBOUNCE_WINDOW" default:"700ms"`
	CacheTTL  time.Duration `envconfig:"GEOCODE_CACHE_TTL" default:"24h"`
}

// RoutingConfig points at an OSRM-compatible routing endpoint.
type RoutingConfig struct {
	URL     string        `envconfig:"OSRM_URL" default:"https://router.project-osrm.org"`
	Timeout time.Duration `envconfig:"ROUTE_TIMEOUT" default:"6s"`
}

// RedisConfig enables the geocode cache when Addr is set.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// ShopConfig describes the kitchen the couriers leave from.
type ShopConfig struct {
	OriginLat    float64       `envconfig:"ORIGIN_LAT" default:"-41.46619826299714"`
	OriginLng    float64       `envconfig:"ORIGIN_LNG" default:"-72.99901571534275"`
	OriginName   string        `envconfig:"ORIGIN_NAME" default:"Sushikoi - Av. Capitan Avalos 6130, Puerto Montt"`
	DefaultCity  string        `envconfig:"DEFAULT_CITY" default:"Puerto Montt"`
	PackDuration time.Duration `envconfig:"PACK_DURATION" default:"90s"`
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
}

// Load loads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	// Validate critical settings
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}

	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET in development.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if cfg.Shop.PackDuration <= 0 {
		return nil, fmt.Errorf("PACK_DURATION must be positive, got %s", cfg.Shop.PackDuration)
	}
	if cfg.Shop.TickInterval <= 0 {
		return nil, fmt.Errorf("TICK_INTERVAL must be positive, got %s", cfg.Shop.TickInterval)
	}
	return &cfg, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	redis := "disabled"
	if c.Redis.Addr != "" {
		redis = c.Redis.Addr
	}
	return fmt.Sprintf("Config{DB: %s, gRPC: %s, HTTP: %s, Geocoder: %s, Routing: %s, Redis: %s, Auth: *** (masked) ***}",
		c.Database.Path, c.GRPC.Address, c.HTTP.Address, c.Geocoder.URL, c.Routing.URL, redis)
}
