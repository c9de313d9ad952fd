package config

const (
	EnvPrefix = "GASDROP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv   = "GASDROP_APP_ENV"
	EnvPort     = "GASDROP_APP_PORT"
	EnvLogLevel = "GASDROP_LOG_LEVEL"

	EnvDBDSN    = "GASDROP_DB_DSN"
	EnvDBDriver = "GASDROP_DB_DRIVER"
	EnvDBHost   = "GASDROP_DB_HOST"
	EnvDBPort   = "GASDROP_DB_PORT"
	EnvDBUser   = "GASDROP_DB_USER"
	EnvDBPass   = "GASDROP_DB_PASSWORD"
	EnvDBName   = "GASDROP_DB_NAME"

	EnvRedisURL = "GASDROP_REDIS_URL"

	EnvJWTSecret              = "GASDROP_JWT_SECRET"
	EnvJWTIssuer              = "GASDROP_JWT_ISSUER"
	EnvJWTExpMins             = "GASDROP_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "GASDROP_REFRESH_TOKEN_TTL_MINUTES"

	EnvPricingDeliveryCharge = "GASDROP_PRICING_DELIVERY_CHARGE"
	EnvPricingTaxRate        = "GASDROP_PRICING_TAX_RATE"
	EnvPricingPromoCodes     = "GASDROP_PRICING_PROMO_CODES"

	EnvSessionDeliveryTTL = "GASDROP_SESSION_DELIVERY_TTL"
	EnvCronSchedule       = "GASDROP_CRON_SCHEDULE"
	EnvCronWeekStartsOn   = "GASDROP_CRON_WEEK_STARTS_ON"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
