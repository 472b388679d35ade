package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"storefront-backend/pkg/enums"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Cart          CartConfig
	Orders        OrdersConfig
	Payments      PaymentsConfig
	Notifications NotificationsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if !cfg.Cart.MergeStrategyEnum().IsValid() {
		return nil, fmt.Errorf("invalid cart merge strategy %q", cfg.Cart.MergeStrategy)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
}

type CartConfig struct {
	MergeStrategy string `envconfig:"STOREFRONT_CART_MERGE_STRATEGY" default:"replace"`
	MaxLineQty    int    `envconfig:"STOREFRONT_CART_MAX_LINE_QTY" default:"99"`
}

// MergeStrategyEnum returns the configured guest cart transfer strategy.
func (c CartConfig) MergeStrategyEnum() enums.CartMergeStrategy {
	return enums.CartMergeStrategy(strings.ToLower(strings.TrimSpace(c.MergeStrategy)))
}

type OrdersConfig struct {
	TrackingPrefix     string        `envconfig:"STOREFRONT_ORDERS_TRACKING_PREFIX" default:"TRK"`
	PendingExpiry      time.Duration `envconfig:"STOREFRONT_ORDERS_PENDING_EXPIRY" default:"24h"`
	BatchTransitionMax int           `envconfig:"STOREFRONT_ORDERS_BATCH_TRANSITION_MAX" default:"100"`
}

type PaymentsConfig struct {
	SquareToken       string `envconfig:"STOREFRONT_SQUARE_ACCESS_TOKEN"`
	SquareEnvironment string `envconfig:"STOREFRONT_SQUARE_ENV" default:"sandbox"`
	SquareLocationID  string `envconfig:"STOREFRONT_SQUARE_LOCATION_ID"`
	CurrencyCode      string `envconfig:"STOREFRONT_PAYMENTS_CURRENCY" default:"USD"`
}

type NotificationsConfig struct {
	Enabled         bool          `envconfig:"STOREFRONT_NOTIFICATIONS_ENABLED" default:"true"`
	DispatchTimeout time.Duration `envconfig:"STOREFRONT_NOTIFICATIONS_DISPATCH_TIMEOUT" default:"10s"`

	EmailGatewayURL string `envconfig:"STOREFRONT_NOTIFICATIONS_EMAIL_GATEWAY_URL"`
	EmailAPIKey     string `envconfig:"STOREFRONT_NOTIFICATIONS_EMAIL_API_KEY"`
	EmailFrom       string `envconfig:"STOREFRONT_NOTIFICATIONS_EMAIL_FROM" default:"orders@storefront.example"`

	SMSGatewayURL string `envconfig:"STOREFRONT_NOTIFICATIONS_SMS_GATEWAY_URL"`
	SMSAPIKey     string `envconfig:"STOREFRONT_NOTIFICATIONS_SMS_API_KEY"`
	SMSSender     string `envconfig:"STOREFRONT_NOTIFICATIONS_SMS_SENDER"`

	WhatsAppGatewayURL string `envconfig:"STOREFRONT_NOTIFICATIONS_WHATSAPP_GATEWAY_URL"`
	WhatsAppAPIKey     string `envconfig:"STOREFRONT_NOTIFICATIONS_WHATSAPP_API_KEY"`

	RetryAttempts int           `envconfig:"STOREFRONT_NOTIFICATIONS_RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"STOREFRONT_NOTIFICATIONS_RETRY_BACKOFF" default:"250ms"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	OrderExpiryInterval time.Duration `envconfig:"STOREFRONT_CRON_ORDER_EXPIRY_INTERVAL" default:"5m"`
	OutboxRetentionDays int           `envconfig:"STOREFRONT_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	LockKey             string        `envconfig:"STOREFRONT_CRON_LOCK_KEY" default:"storefront:cron:lock"`
	LockTTL             time.Duration `envconfig:"STOREFRONT_CRON_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
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
