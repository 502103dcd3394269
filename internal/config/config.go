package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log LogConfig

	App struct {
		ENV string
	}

	Store StoreConfig

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Lock struct {
		Backend       string // local|redis
		TTL           time.Duration
		RetryInterval time.Duration
	}

	Profile struct {
		CacheEnabled bool
		CacheTTL     time.Duration
	}

	Match struct {
		CreatePolicy string // idempotent|strict
		PageSize     int
	}

	GRPC struct {
		Host string
		Port string
	}
}

type LogConfig struct {
	Level     string
	Format    string
	Component string
	Source    bool
}

// StoreConfig locates the backing persistence for match records.
//
// Endpoint meaning depends on Driver:
//   - mysql, postgres: host:port of the server
//   - sqlite: database file (":memory:" allowed)
//   - pebble: data directory
//
// A non-empty DSN overrides Endpoint/Credentials/Name for the SQL drivers.
type StoreConfig struct {
	Driver      string
	Endpoint    string
	Credentials Credentials
	Name        string
	DSN         string
	Timeout     time.Duration
}

type Credentials struct {
	Username string
	Password string
}

var defaults = map[string]any{
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "text",
	"LOG_COMPONENT":         "grpc_server",
	"LOG_SOURCE":            false,
	"APP_ENV":               "production",
	"STORE_DRIVER":          "mysql",
	"STORE_ENDPOINT":        "localhost:3306",
	"STORE_USER":            "root",
	"STORE_PASSWORD":        "root",
	"STORE_NAME":            "muzz",
	"STORE_DSN":             "",
	"STORE_TIMEOUT":         "3s",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"LOCK_BACKEND":          "local",
	"LOCK_TTL":              "5s",
	"LOCK_RETRY_INTERVAL":   "10ms",
	"PROFILE_CACHE_ENABLED": true,
	"PROFILE_CACHE_TTL":     "1h",
	"MATCH_CREATE_POLICY":   "idempotent",
	"MATCH_PAGE_SIZE":       20,
	"GRPC_HOST":             "127.0.0.1",
	"GRPC_PORT":             "50051",
}

// New builds the configuration from environment variables only.
func New() *Config {
	return fromViper(newViper())
}

// Load reads an optional config file (any format viper understands) and
// lets environment variables override its values.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return fromViper(v), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Log.Component = v.GetString("LOG_COMPONENT")
	cfg.Log.Source = v.GetBool("LOG_SOURCE")

	cfg.App.ENV = v.GetString("APP_ENV")

	// Store
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))
	cfg.Store.Endpoint = v.GetString("STORE_ENDPOINT")
	cfg.Store.Credentials.Username = v.GetString("STORE_USER")
	cfg.Store.Credentials.Password = v.GetString("STORE_PASSWORD")
	cfg.Store.Name = v.GetString("STORE_NAME")
	cfg.Store.DSN = v.GetString("STORE_DSN")
	cfg.Store.Timeout = v.GetDuration("STORE_TIMEOUT")

	// Redis
	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	cfg.Lock.Backend = strings.ToLower(v.GetString("LOCK_BACKEND"))
	cfg.Lock.TTL = v.GetDuration("LOCK_TTL")
	cfg.Lock.RetryInterval = v.GetDuration("LOCK_RETRY_INTERVAL")

	cfg.Profile.CacheEnabled = v.GetBool("PROFILE_CACHE_ENABLED")
	cfg.Profile.CacheTTL = v.GetDuration("PROFILE_CACHE_TTL")

	cfg.Match.CreatePolicy = strings.ToLower(v.GetString("MATCH_CREATE_POLICY"))
	cfg.Match.PageSize = v.GetInt("MATCH_PAGE_SIZE")

	// gRPC
	cfg.GRPC.Host = v.GetString("GRPC_HOST")
	cfg.GRPC.Port = v.GetString("GRPC_PORT")

	return cfg
}

// ResolveDSN returns the connection string for the SQL drivers.
// Pebble has no DSN; Endpoint is returned as the data directory.
func (s StoreConfig) ResolveDSN() string {
	if s.DSN != "" {
		return s.DSN
	}

	switch s.Driver {
	case "postgres":
		host, port, err := net.SplitHostPort(s.Endpoint)
		if err != nil {
			host, port = s.Endpoint, "5432"
		}
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			host, port, s.Credentials.Username, s.Credentials.Password, s.Name,
		)
	case "sqlite", "pebble":
		return s.Endpoint
	default:
		return fmt.Sprintf(
			"%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			s.Credentials.Username, s.Credentials.Password, s.Endpoint, s.Name,
		)
	}
}
