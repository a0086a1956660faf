package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Routing      RoutingConfig
	Cron         CronConfig
	Feed         FeedConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(cfg.PubSub, cfg.Kafka); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GROUPBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"GROUPBUY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GROUPBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GROUPBUY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GROUPBUY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GROUPBUY_DB_DSN"`
	Driver string `envconfig:"GROUPBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GROUPBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"GROUPBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GROUPBUY_DB_USER"`
	LegacyPassword string `envconfig:"GROUPBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"GROUPBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"GROUPBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GROUPBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROUPBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROUPBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROUPBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROUPBUY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GROUPBUY_REDIS_ADDR"`
	Password     string        `envconfig:"GROUPBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GROUPBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GROUPBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROUPBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROUPBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROUPBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROUPBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GROUPBUY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GROUPBUY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GROUPBUY_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GROUPBUY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GROUPBUY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GROUPBUY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GROUPBUY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GROUPBUY_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig throttles login attempts per client IP and per email.
type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"GROUPBUY_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"GROUPBUY_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"GROUPBUY_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GROUPBUY_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig carries the knobs of the participation engine and lifecycle controller.
type OrdersConfig struct {
	DefaultDeliveryRatePerKm string        `envconfig:"GROUPBUY_DEFAULT_DELIVERY_RATE_PER_KM" default:"5"`
	StoreTimeout             time.Duration `envconfig:"GROUPBUY_STORE_TIMEOUT" default:"5s"`
	SweepMaxAttempts         int           `envconfig:"GROUPBUY_SWEEP_MAX_ATTEMPTS" default:"3"`
	SweepBaseDelay           time.Duration `envconfig:"GROUPBUY_SWEEP_BASE_DELAY" default:"100ms"`
}

// DefaultDeliveryRate parses the configured default per-km rate, falling back to 5.
func (o OrdersConfig) DefaultDeliveryRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(o.DefaultDeliveryRatePerKm))
	if err != nil || rate.IsNegative() {
		return decimal.NewFromInt(5)
	}
	return rate
}

type RoutingConfig struct {
	APIKey  string        `envconfig:"GROUPBUY_ROUTING_API_KEY"`
	BaseURL string        `envconfig:"GROUPBUY_ROUTING_BASE_URL" default:"https://routes.googleapis.com"`
	Timeout time.Duration `envconfig:"GROUPBUY_ROUTING_TIMEOUT" default:"8s"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"GROUPBUY_CRON_INTERVAL" default:"1m"`
	LockTTL         time.Duration `envconfig:"GROUPBUY_CRON_LOCK_TTL" default:"2m"`
	OutboxRetention time.Duration `envconfig:"GROUPBUY_OUTBOX_RETENTION" default:"720h"`
}

type FeedConfig struct {
	Backend        string        `envconfig:"GROUPBUY_FEED_BACKEND" default:"redis"`
	Channel        string        `envconfig:"GROUPBUY_FEED_CHANNEL" default:"orders:changed"`
	ResyncInterval time.Duration `envconfig:"GROUPBUY_FEED_RESYNC_INTERVAL" default:"30s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"GROUPBUY_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"GROUPBUY_PUBSUB_ORDERS_TOPIC" default:"groupbuy-order-events"`
}

type KafkaConfig struct {
	Brokers     string `envconfig:"GROUPBUY_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic string `envconfig:"GROUPBUY_KAFKA_ORDERS_TOPIC" default:"groupbuy-order-events"`
}

// BrokerList splits the comma separated broker list.
func (k KafkaConfig) BrokerList() []string {
	out := []string{}
	for _, broker := range strings.Split(k.Brokers, ",") {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type OutboxConfig struct {
	Sink           string `envconfig:"GROUPBUY_OUTBOX_SINK" default:"pubsub"`
	BatchSize      int    `envconfig:"GROUPBUY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"GROUPBUY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"GROUPBUY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) validate(ps PubSubConfig, k KafkaConfig) error {
	switch strings.ToLower(strings.TrimSpace(o.Sink)) {
	case OutboxSinkPubSub:
		if strings.TrimSpace(ps.OrdersTopic) == "" {
			return fmt.Errorf("%s is required when the outbox sink is %s", EnvPubSubTopic, OutboxSinkPubSub)
		}
	case OutboxSinkKafka:
		if len(k.BrokerList()) == 0 {
			return fmt.Errorf("%s is required when the outbox sink is %s", EnvKafkaBrokers, OutboxSinkKafka)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvOutboxSink, o.Sink)
	}
	return nil
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
