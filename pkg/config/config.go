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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Pricing      PricingConfig
	Cart         CartConfig
	OTP          OTPConfig
	Payment      PaymentConfig
	Merchant     MerchantConfig
	Mail         MailConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	} else {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ARTCART_APP_ENV" required:"true"`
	Port         string   `envconfig:"ARTCART_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"ARTCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ARTCART_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"ARTCART_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN    string `envconfig:"ARTCART_DB_DSN"`
	Driver string `envconfig:"ARTCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ARTCART_DB_HOST"`
	LegacyPort     int    `envconfig:"ARTCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ARTCART_DB_USER"`
	LegacyPassword string `envconfig:"ARTCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"ARTCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"ARTCART_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ARTCART_SQLITE_PATH" default:"artcart.db"`

	MaxOpenConns    int           `envconfig:"ARTCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARTCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARTCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARTCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTCART_REDIS_URL"`
	Address      string        `envconfig:"ARTCART_REDIS_ADDR"`
	Password     string        `envconfig:"ARTCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether enough connection info was supplied to dial Redis.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ARTCART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ARTCART_JWT_ISSUER" default:"artcart"`
	ExpirationMinutes int    `envconfig:"ARTCART_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ARTCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ARTCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ARTCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ARTCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ARTCART_ARGON_KEY_LEN" default:"32"`
}

// PricingConfig holds the flat shipping rule applied to every cart.
type PricingConfig struct {
	ShippingCharge        string `envconfig:"ARTCART_SHIPPING_CHARGE" default:"50.00"`
	FreeShippingThreshold string `envconfig:"ARTCART_FREE_SHIPPING_THRESHOLD" default:"5000.00"`
	Currency              string `envconfig:"ARTCART_CURRENCY" default:"INR"`
}

// ShippingChargeAmount returns the configured flat shipping charge.
func (p PricingConfig) ShippingChargeAmount() decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(p.ShippingCharge))
	if err != nil {
		return decimal.Zero
	}
	return v
}

// FreeShippingThresholdAmount returns the cart total from which shipping is waived.
func (p PricingConfig) FreeShippingThresholdAmount() decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(p.FreeShippingThreshold))
	if err != nil {
		return decimal.Zero
	}
	return v
}

func (p PricingConfig) validate() error {
	if _, err := decimal.NewFromString(strings.TrimSpace(p.ShippingCharge)); err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvShippingCharge, err)
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(p.FreeShippingThreshold)); err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvFreeShippingThreshold, err)
	}
	return nil
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"ARTCART_CART_SESSION_TTL" default:"168h"`
	MaxLines   int           `envconfig:"ARTCART_CART_MAX_LINES" default:"200"`
}

type OTPConfig struct {
	Length      int           `envconfig:"ARTCART_OTP_LENGTH" default:"6"`
	TTL         time.Duration `envconfig:"ARTCART_OTP_TTL" default:"10m"`
	MaxAttempts int           `envconfig:"ARTCART_OTP_MAX_ATTEMPTS" default:"5"`
}

type PaymentConfig struct {
	UPIVPA        string `envconfig:"ARTCART_UPI_VPA" required:"true"`
	PayeeName     string `envconfig:"ARTCART_UPI_PAYEE_NAME" required:"true"`
	BankName      string `envconfig:"ARTCART_BANK_NAME"`
	AccountName   string `envconfig:"ARTCART_BANK_ACCOUNT_NAME"`
	AccountNumber string `envconfig:"ARTCART_BANK_ACCOUNT_NUMBER"`
	IFSC          string `envconfig:"ARTCART_BANK_IFSC"`
	UploadDir     string `envconfig:"ARTCART_UPLOAD_DIR" default:"uploads/payment-proofs"`
	MaxUploadMB   int    `envconfig:"ARTCART_MAX_UPLOAD_MB" default:"5"`
}

// MaxUploadBytes converts the configured MB limit into bytes.
func (p PaymentConfig) MaxUploadBytes() int64 {
	if p.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(p.MaxUploadMB) << 20
}

type MerchantConfig struct {
	Name    string `envconfig:"ARTCART_MERCHANT_NAME" default:"ArtCart Studio"`
	Address string `envconfig:"ARTCART_MERCHANT_ADDRESS"`
	GSTIN   string `envconfig:"ARTCART_MERCHANT_GSTIN"`
	Email   string `envconfig:"ARTCART_MERCHANT_EMAIL"`
	Phone   string `envconfig:"ARTCART_MERCHANT_PHONE"`
}

type MailConfig struct {
	SMTPHost     string `envconfig:"ARTCART_SMTP_HOST"`
	SMTPPort     int    `envconfig:"ARTCART_SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"ARTCART_SMTP_USER"`
	SMTPPassword string `envconfig:"ARTCART_SMTP_PASSWORD"`
	From         string `envconfig:"ARTCART_MAIL_FROM" default:"no-reply@artcart.local"`
}

type RateLimitConfig struct {
	OTPWindow     time.Duration `envconfig:"ARTCART_RATE_LIMIT_OTP_WINDOW" default:"10m"`
	OTPEmailLimit int           `envconfig:"ARTCART_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"5"`
	OTPIPLimit    int           `envconfig:"ARTCART_RATE_LIMIT_OTP_IP_LIMIT" default:"30"`
	LoginWindow   time.Duration `envconfig:"ARTCART_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginLimit    int           `envconfig:"ARTCART_RATE_LIMIT_LOGIN_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ARTCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ARTCART_AUTO_MIGRATE" default:"false"`
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
