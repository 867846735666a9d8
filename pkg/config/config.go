package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "sellio"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "SELLIO_APP_ENV"
	EnvPort     = "SELLIO_APP_PORT"
	EnvDBDSN    = "SELLIO_DB_DSN"
	EnvDBHost   = "SELLIO_DB_HOST"
	EnvDBUser   = "SELLIO_DB_USER"
	EnvDBName   = "SELLIO_DB_NAME"
	EnvRedisURL = "SELLIO_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Cookie       CookieConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SELLIO_APP_ENV" required:"true"`
	Port         string `envconfig:"SELLIO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SELLIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SELLIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SELLIO_DB_DSN"`
	Driver string `envconfig:"SELLIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SELLIO_DB_HOST"`
	LegacyPort     int    `envconfig:"SELLIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SELLIO_DB_USER"`
	LegacyPassword string `envconfig:"SELLIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"SELLIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"SELLIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SELLIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SELLIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SELLIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SELLIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SELLIO_REDIS_URL"`
	Address      string        `envconfig:"SELLIO_REDIS_ADDR"`
	Password     string        `envconfig:"SELLIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SELLIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SELLIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SELLIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SELLIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SELLIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SELLIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RateLimitConfig throttles the cart write surface per client IP.
type RateLimitConfig struct {
	WriteWindow  time.Duration `envconfig:"SELLIO_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteIPLimit int           `envconfig:"SELLIO_RATE_LIMIT_WRITE_IP_LIMIT" default:"120"`
}

// CookieConfig controls the anonymous cart cookie issued on the active-cart path.
type CookieConfig struct {
	Name   string        `envconfig:"SELLIO_CART_COOKIE_NAME" default:"sellio_cart"`
	MaxAge time.Duration `envconfig:"SELLIO_CART_COOKIE_MAX_AGE" default:"720h"`
	Secure bool          `envconfig:"SELLIO_CART_COOKIE_SECURE" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SELLIO_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
