package config

// EnvPrefix is empty because every tag carries its full STOREFRONT_ name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?cache=shared"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvJWTSecret       = "STOREFRONT_JWT_SECRET"
	EnvAPIBaseURL      = "STOREFRONT_API_BASE_URL"
	EnvReturnBaseURL   = "STOREFRONT_PAYMENT_RETURN_BASE_URL"
	EnvUseSQLite       = "STOREFRONT_USE_SQLITE"
	EnvCartTTL         = "STOREFRONT_CART_TTL"
	EnvPollInterval    = "STOREFRONT_PAYMENT_POLL_INTERVAL"
	EnvCORSOrigins     = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvGCPProjectID    = "STOREFRONT_GCP_PROJECT_ID"
	EnvWhatsAppNumber  = "STOREFRONT_WHATSAPP_NUMBER"
	EnvGoogleMapsKey   = "STOREFRONT_GOOGLE_MAPS_API_KEY"
	EnvGoogleClientID  = "STOREFRONT_GOOGLE_CLIENT_ID"
	EnvFacebookAppID   = "STOREFRONT_FACEBOOK_APP_ID"
	EnvFacebookSecret  = "STOREFRONT_FACEBOOK_APP_SECRET"
	EnvAPIServiceToken = "STOREFRONT_API_SERVICE_TOKEN"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
