package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverRedis  = "redis"
	StorageDriverSQL    = "sql"
	StorageDriverMemory = "memory"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "CART_APP_ENV"
	EnvPort           = "CART_APP_PORT"
	EnvStorageDriver  = "CART_STORAGE_DRIVER"
	EnvRedisURL       = "CART_REDIS_URL"
	EnvDBDriver       = "CART_DB_DRIVER"
	EnvDBDSN          = "CART_DB_DSN"
	EnvOrdersBaseURL  = "CART_ORDERS_BASE_URL"
	EnvModalAutoClose = "CART_MODAL_AUTO_DISMISS"
	EnvSessionIdleTTL = "CART_SESSION_IDLE_TTL"
	EnvCORSOrigins    = "CART_CORS_ALLOWED_ORIGINS"
)

type Config struct {
	App     AppConfig
	Storage StorageConfig
	Redis   RedisConfig
	DB      DBConfig
	Orders  OrdersConfig
	Modal   ModalConfig
	Session SessionConfig
	CORS    CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CART_APP_ENV" required:"true"`
	Port         string `envconfig:"CART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"CART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"CART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the durable key-value backend for cart records.
type StorageConfig struct {
	Driver    string        `envconfig:"CART_STORAGE_DRIVER" default:"redis"`
	Namespace string        `envconfig:"CART_STORAGE_NAMESPACE" default:"gst"`
	RecordTTL time.Duration `envconfig:"CART_STORAGE_RECORD_TTL" default:"720h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CART_REDIS_URL"`
	Address      string        `envconfig:"CART_REDIS_ADDR"`
	Password     string        `envconfig:"CART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CART_REDIS_READ_TIMEOUT" default:"2s"`
	WriteTimeout time.Duration `envconfig:"CART_REDIS_WRITE_TIMEOUT" default:"2s"`
}

type DBConfig struct {
	Driver          string        `envconfig:"CART_DB_DRIVER" default:"postgres"`
	DSN             string        `envconfig:"CART_DB_DSN"`
	AutoMigrate     bool          `envconfig:"CART_DB_AUTO_MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"CART_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"CART_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// OrdersConfig points at the external order-intake service.
type OrdersConfig struct {
	BaseURL    string        `envconfig:"CART_ORDERS_BASE_URL" required:"true"`
	Timeout    time.Duration `envconfig:"CART_ORDERS_TIMEOUT" default:"15s"`
	CSRFHeader string        `envconfig:"CART_ORDERS_CSRF_HEADER" default:"X-CSRFToken"`
	CSRFCookie string        `envconfig:"CART_ORDERS_CSRF_COOKIE" default:"csrftoken"`
}

type ModalConfig struct {
	AutoDismiss time.Duration `envconfig:"CART_MODAL_AUTO_DISMISS" default:"5s"`
}

type SessionConfig struct {
	CookieName string        `envconfig:"CART_SESSION_COOKIE" default:"cart_session"`
	CookieTTL  time.Duration `envconfig:"CART_SESSION_COOKIE_TTL" default:"720h"`
	Secure     bool          `envconfig:"CART_SESSION_SECURE" default:"true"`
	IdleTTL    time.Duration `envconfig:"CART_SESSION_IDLE_TTL" default:"30m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CART_CORS_ALLOWED_ORIGINS" default:"http://localhost:8000"`
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or CART_REDIS_ADDR is required for the redis storage driver", EnvRedisURL)
		}
	case StorageDriverSQL:
		return c.DB.validate()
	case StorageDriverMemory:
		if c.App.IsProd() {
			return fmt.Errorf("%s=memory is not allowed in prod", EnvStorageDriver)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, c.Storage.Driver)
	}
	return nil
}

func (db *DBConfig) validate() error {
	db.Driver = strings.ToLower(strings.TrimSpace(db.Driver))
	if db.Driver != DBDriverPostgres && db.Driver != DBDriverSQLite {
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
	if db.DSN == "" {
		return fmt.Errorf("%s is required for the sql storage driver", EnvDBDSN)
	}
	return nil
}
