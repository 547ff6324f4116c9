package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/chocandle/cho-candle-backend/pkg/env"
)

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	HTTP      HTTPConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Stripe    StripeConfig
	Checkout  CheckoutConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Eventing  EventingConfig
	Outbox    OutboxConfig
	Cron      CronConfig
	Features  FeatureFlagsConfig
	Retention RetentionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	// Hosting platforms inject PORT; an explicit CHO_APP_PORT still wins.
	if port := env.First("CHO_APP_PORT", "PORT"); port != "" {
		cfg.App.Port = port
	}
	cfg.HTTP.FrontendURL = strings.TrimRight(strings.TrimSpace(cfg.HTTP.FrontendURL), "/")
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHO_APP_ENV" required:"true"`
	Port         string `envconfig:"CHO_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"CHO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHO_SERVICE_KIND" default:"api"`
}

type HTTPConfig struct {
	FrontendURL        string   `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	CORSAllowedOrigins []string `envconfig:"CHO_CORS_ALLOWED_ORIGINS"`
}

// AllowedOrigins returns the configured CORS origins, falling back to the frontend URL.
func (h HTTPConfig) AllowedOrigins() []string {
	origins := make([]string, 0, len(h.CORSAllowedOrigins)+1)
	for _, origin := range h.CORSAllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 && h.FrontendURL != "" {
		origins = append(origins, h.FrontendURL)
	}
	return origins
}

type DBConfig struct {
	DSN    string `envconfig:"CHO_DB_DSN"`
	Driver string `envconfig:"CHO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHO_DB_HOST"`
	LegacyPort     int    `envconfig:"CHO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHO_DB_USER"`
	LegacyPassword string `envconfig:"CHO_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHO_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHO_REDIS_URL"`
	Address      string        `envconfig:"CHO_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"CHO_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the hosted auth platform.
type JWTConfig struct {
	Secret            string `envconfig:"CHO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHO_JWT_ISSUER"`
	Audience          string `envconfig:"CHO_JWT_AUDIENCE" default:"authenticated"`
	ExpirationMinutes int    `envconfig:"CHO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	SecretKey string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	Env       string `envconfig:"CHO_STRIPE_ENV" default:"test"`
	Currency  string `envconfig:"CHO_STRIPE_CURRENCY" default:"thb"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	SessionLimit  int           `envconfig:"CHO_CHECKOUT_SESSION_LIMIT" default:"10"`
	SessionWindow time.Duration `envconfig:"CHO_CHECKOUT_SESSION_WINDOW" default:"1m"`
	CartTTL       time.Duration `envconfig:"CHO_CART_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"CHO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"CHO_PUBSUB_ORDERS_TOPIC" default:"cho-order-events"`
	OrdersSubscription string `envconfig:"CHO_PUBSUB_ORDERS_SUBSCRIPTION" default:"cho-order-events-notifications"`
	NotificationTopic  string `envconfig:"CHO_PUBSUB_NOTIFICATION_TOPIC" default:"cho-notification-events"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"CHO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CHO_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CHO_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CHO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"CHO_CRON_INTERVAL" default:"1h"`
	MetricsAddr string        `envconfig:"CHO_CRON_METRICS_ADDR" default:":9102"`
}

type RetentionConfig struct {
	OutboxDays          int `envconfig:"CHO_RETENTION_OUTBOX_DAYS" default:"30"`
	NotificationDays    int `envconfig:"CHO_RETENTION_NOTIFICATION_DAYS" default:"90"`
	PendingOrderAgeDays int `envconfig:"CHO_RETENTION_PENDING_ORDER_DAYS" default:"7"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHO_AUTO_MIGRATE" default:"false"`
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
