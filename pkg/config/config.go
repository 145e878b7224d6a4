package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Backend      BackendConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GoogleMaps   GoogleMapsConfig
	OAuth        OAuthConfig
	Contact      ContactConfig
	Cart         CartConfig
	Payments     PaymentsConfig
	Reconcile    ReconcileConfig
	CORS         CORSConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.validateProd(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateProd rejects settings that are only acceptable on a developer machine.
func (c *Config) validateProd() error {
	if !c.App.IsProd() {
		return nil
	}
	u, err := url.Parse(c.Payments.ReturnBaseURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%s must be an https url in prod", EnvReturnBaseURL)
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			return fmt.Errorf("wildcard CORS origin is not allowed in prod")
		}
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	DefaultLang  string `envconfig:"STOREFRONT_DEFAULT_LANG" default:"ar"`
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

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the catalog is served from a local SQLite file.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
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
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"restaurant-storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// BackendConfig points at the restaurant REST API that owns orders, payments and addresses.
type BackendConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_API_BASE_URL" required:"true"`
	Timeout      time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
	ServiceToken string        `envconfig:"STOREFRONT_API_SERVICE_TOKEN"`
}

type RateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	CheckoutWindow     time.Duration `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_WINDOW" default:"10m"`
	CheckoutIPLimit    int           `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_IP_LIMIT" default:"30"`
	CheckoutLimit      int           `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_SESSION_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"STOREFRONT_GOOGLE_MAPS_API_KEY"`
	Region string `envconfig:"STOREFRONT_GOOGLE_MAPS_REGION" default:"eg"`
}

type OAuthConfig struct {
	GoogleClientID    string `envconfig:"STOREFRONT_GOOGLE_CLIENT_ID"`
	FacebookAppID     string `envconfig:"STOREFRONT_FACEBOOK_APP_ID"`
	FacebookAppSecret string `envconfig:"STOREFRONT_FACEBOOK_APP_SECRET"`
}

type ContactConfig struct {
	WhatsAppNumber string `envconfig:"STOREFRONT_WHATSAPP_NUMBER"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"168h"`
}

type PaymentsConfig struct {
	PollInterval  time.Duration `envconfig:"STOREFRONT_PAYMENT_POLL_INTERVAL" default:"3s"`
	CancelGrace   time.Duration `envconfig:"STOREFRONT_PAYMENT_CANCEL_GRACE" default:"10s"`
	IdleTimeout   time.Duration `envconfig:"STOREFRONT_PAYMENT_IDLE_TIMEOUT" default:"2m"`
	PendingTTL    time.Duration `envconfig:"STOREFRONT_PAYMENT_PENDING_TTL" default:"2h"`
	TerminalTTL   time.Duration `envconfig:"STOREFRONT_PAYMENT_TERMINAL_TTL" default:"72h"`
	ReturnBaseURL string        `envconfig:"STOREFRONT_PAYMENT_RETURN_BASE_URL" required:"true"`
}

type ReconcileConfig struct {
	Interval    time.Duration `envconfig:"STOREFRONT_RECONCILE_INTERVAL" default:"1m"`
	BatchSize   int           `envconfig:"STOREFRONT_RECONCILE_BATCH_SIZE" default:"50"`
	MaxAttempts int           `envconfig:"STOREFRONT_RECONCILE_MAX_ATTEMPTS" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

// Enabled reports whether GCP-backed sinks should be wired.
func (g GCPConfig) Enabled() bool {
	return strings.TrimSpace(g.ProjectID) != ""
}

type PubSubConfig struct {
	CheckoutTopic string `envconfig:"STOREFRONT_PUBSUB_CHECKOUT_TOPIC" default:"storefront-checkout-events"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"STOREFRONT_BIGQUERY_DATASET" default:"storefront"`
	CheckoutEventsTable string `envconfig:"STOREFRONT_BIGQUERY_CHECKOUT_TABLE" default:"checkout_events"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
