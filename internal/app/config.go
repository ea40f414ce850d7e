package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8000"

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8000" usage:"API server listen address"`
	Storage   StorageConfig
	Auth      AuthConfig
	Uploads   UploadsConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// StorageConfig selects and locates the order/menu/user store.
type StorageConfig struct {
	Driver        string `default:"mongo" usage:"Storage driver: mongo or postgres"`
	MongoURI      string `default:"mongodb://localhost:27017" usage:"MongoDB connection URI" flag:"mongo-uri"`
	MongoDatabase string `default:"pos_restaurant" usage:"MongoDB database name" flag:"mongo-database"`
	PostgresURL   string `usage:"PostgreSQL connection URL" flag:"postgres-url"`
}

// AuthConfig controls access token signing and password hashing.
type AuthConfig struct {
	SecretKey  string        `usage:"HMAC key for signing access tokens (POS_AUTH_SECRET_KEY or SECRET_KEY)" flag:"secret-key"`
	TokenTTL   time.Duration `default:"30m" usage:"Access token lifetime" flag:"token-ttl"`
	BcryptCost int           `default:"10" usage:"bcrypt work factor" flag:"bcrypt-cost"`
}

// UploadsConfig controls menu image uploads.
type UploadsConfig struct {
	Dir      string `default:"uploads/images" usage:"Directory for uploaded menu images" flag:"uploads-dir"`
	MaxBytes int64  `default:"5242880" usage:"Maximum size of one uploaded image" flag:"uploads-max-bytes"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables the limiter"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration. DATABASE_URL selects the driver
// by its scheme.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		if u, err := url.Parse(v); err == nil {
			switch u.Scheme {
			case "postgres", "postgresql":
				if c.Storage.PostgresURL == "" {
					c.Storage.PostgresURL = v
				}
				c.Storage.Driver = DriverPostgres
			case "mongodb", "mongodb+srv":
				c.Storage.MongoURI = v
				c.Storage.Driver = DriverMongo
			}
		}
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Storage.MongoURI = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		c.Storage.MongoDatabase = v
	}
	if c.Auth.SecretKey == "" {
		c.Auth.SecretKey = os.Getenv("SECRET_KEY")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return errors.New("mongo URI is required: set POS_STORAGE_MONGO_URI or MONGO_URI")
		}
	case DriverPostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("postgres URL is required: set POS_STORAGE_POSTGRES_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.SecretKey == "" {
		return errors.New("secret key is required: set POS_AUTH_SECRET_KEY or SECRET_KEY")
	}
	return nil
}
