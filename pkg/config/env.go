package config

const (
	EnvPrefix = "CHO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "CHO_APP_ENV"
	EnvPort         = "CHO_APP_PORT"
	EnvFrontendURL  = "FRONTEND_URL"
	EnvDBDSN        = "CHO_DB_DSN"
	EnvDBHost       = "CHO_DB_HOST"
	EnvDBUser       = "CHO_DB_USER"
	EnvDBName       = "CHO_DB_NAME"
	EnvRedisURL     = "CHO_REDIS_URL"
	EnvJWTSecret    = "CHO_JWT_SECRET"
	EnvStripeSecret = "STRIPE_SECRET_KEY"
	EnvCORSOrigins  = "CHO_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
