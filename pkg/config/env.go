package config

const (
	EnvPrefix = "AGRITRACE"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "AGRITRACE_APP_ENV"
	EnvPort   = "AGRITRACE_APP_PORT"

	EnvDBDSN  = "AGRITRACE_DB_DSN"
	EnvDBHost = "AGRITRACE_DB_HOST"
	EnvDBUser = "AGRITRACE_DB_USER"
	EnvDBName = "AGRITRACE_DB_NAME"

	EnvRedisURL = "AGRITRACE_REDIS_URL"

	EnvJWTSecret  = "AGRITRACE_JWT_SECRET"
	EnvJWTIssuer  = "AGRITRACE_JWT_ISSUER"
	EnvJWTExpMins = "AGRITRACE_JWT_EXPIRATION_MINUTES"

	EnvRecordSigningSecret = "AGRITRACE_RECORD_SIGNING_SECRET"

	EnvGCPProjectID = "AGRITRACE_GCP_PROJECT_ID"

	EnvPubSubAnchorTopic = "AGRITRACE_PUBSUB_ANCHOR_TOPIC"
	EnvPubSubAnchorSub   = "AGRITRACE_PUBSUB_ANCHOR_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
