package config

const EnvPrefix = "ARTCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "ARTCART_APP_ENV"
	EnvPort      = "ARTCART_APP_PORT"
	EnvDBDSN     = "ARTCART_DB_DSN"
	EnvDBHost    = "ARTCART_DB_HOST"
	EnvDBUser    = "ARTCART_DB_USER"
	EnvDBName    = "ARTCART_DB_NAME"
	EnvUseSQLite = "ARTCART_USE_SQLITE"

	EnvRedisURL  = "ARTCART_REDIS_URL"
	EnvJWTSecret = "ARTCART_JWT_SECRET"

	EnvShippingCharge        = "ARTCART_SHIPPING_CHARGE"
	EnvFreeShippingThreshold = "ARTCART_FREE_SHIPPING_THRESHOLD"

	EnvUPIVPA       = "ARTCART_UPI_VPA"
	EnvUPIPayeeName = "ARTCART_UPI_PAYEE_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
