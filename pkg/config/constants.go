package config

const (
	EnvPrefix = "GROUPBUY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "GROUPBUY_APP_ENV"
	EnvPort   = "GROUPBUY_APP_PORT"

	EnvDBDSN  = "GROUPBUY_DB_DSN"
	EnvDBHost = "GROUPBUY_DB_HOST"
	EnvDBUser = "GROUPBUY_DB_USER"
	EnvDBName = "GROUPBUY_DB_NAME"

	EnvRedisURL = "GROUPBUY_REDIS_URL"

	EnvJWTSecret  = "GROUPBUY_JWT_SECRET"
	EnvJWTIssuer  = "GROUPBUY_JWT_ISSUER"
	EnvJWTExpMins = "GROUPBUY_JWT_EXPIRATION_MINUTES"

	EnvOutboxSink   = "GROUPBUY_OUTBOX_SINK"
	EnvPubSubTopic  = "GROUPBUY_PUBSUB_ORDERS_TOPIC"
	EnvKafkaBrokers = "GROUPBUY_KAFKA_BROKERS"
)

const (
	OutboxSinkPubSub = "pubsub"
	OutboxSinkKafka  = "kafka"

	FeedBackendRedis = "redis"
	FeedBackendLocal = "local"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
