package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Sessions      SessionsConfig
	Firebase      FirebaseConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"GASDROP_APP_ENV" required:"true"`
	Port         string   `envconfig:"GASDROP_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"GASDROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"GASDROP_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"GASDROP_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"GASDROP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GASDROP_DB_DSN"`
	Driver string `envconfig:"GASDROP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GASDROP_DB_HOST"`
	LegacyPort     int    `envconfig:"GASDROP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GASDROP_DB_USER"`
	LegacyPassword string `envconfig:"GASDROP_DB_PASSWORD"`
	LegacyName     string `envconfig:"GASDROP_DB_NAME"`
	LegacySSLMode  string `envconfig:"GASDROP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GASDROP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GASDROP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GASDROP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GASDROP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is configured.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"GASDROP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GASDROP_REDIS_ADDR"`
	Password     string        `envconfig:"GASDROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"GASDROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GASDROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GASDROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GASDROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GASDROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GASDROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GASDROP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GASDROP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GASDROP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GASDROP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GASDROP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GASDROP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GASDROP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GASDROP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GASDROP_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"GASDROP_PASSWORD_MIN_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GASDROP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GASDROP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GASDROP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GASDROP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GASDROP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GASDROP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool `envconfig:"GASDROP_AUTO_MIGRATE" default:"false"`
	FederatedLogin bool `envconfig:"GASDROP_FEATURE_FEDERATED_LOGIN" default:"false"`
	InFlightGuard  bool `envconfig:"GASDROP_FEATURE_INFLIGHT_GUARD" default:"true"`
}

// PricingConfig drives the cart totals. Amounts are decimal strings so no
// float parsing happens on the money path.
type PricingConfig struct {
	DeliveryCharge string            `envconfig:"GASDROP_PRICING_DELIVERY_CHARGE" default:"30"`
	TaxRate        string            `envconfig:"GASDROP_PRICING_TAX_RATE" default:"0.05"`
	PromoCodes     map[string]string `envconfig:"GASDROP_PRICING_PROMO_CODES" default:"SAVE50:50"`
}

type SessionsConfig struct {
	DeliveryTTL time.Duration `envconfig:"GASDROP_SESSION_DELIVERY_TTL" default:"24h"`
	InFlightTTL time.Duration `envconfig:"GASDROP_SESSION_INFLIGHT_TTL" default:"30s"`
}

type FirebaseConfig struct {
	ProjectID       string `envconfig:"GASDROP_FIREBASE_PROJECT_ID"`
	CredentialsJSON string `envconfig:"GASDROP_FIREBASE_CREDENTIALS_JSON"`
	CheckRevoked    bool   `envconfig:"GASDROP_FIREBASE_CHECK_REVOKED" default:"true"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"GASDROP_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"GASDROP_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"GASDROP_PUBSUB_ORDERS_TOPIC" default:"gd-order-events"`
	OrdersSubscription string `envconfig:"GASDROP_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"GASDROP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"GASDROP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"GASDROP_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"GASDROP_OUTBOX_RETENTION" default:"720h"`
}

// PollInterval returns the publisher poll interval.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type CronConfig struct {
	Schedule     string `envconfig:"GASDROP_CRON_SCHEDULE" default:"@daily"`
	WeekStartsOn string `envconfig:"GASDROP_CRON_WEEK_STARTS_ON" default:"monday"`
	TimeZone     string `envconfig:"GASDROP_CRON_TIMEZONE" default:"Asia/Kolkata"`
	RunOnStartup bool   `envconfig:"GASDROP_CRON_RUN_ON_STARTUP" default:"false"`
}

// WeekStart parses WeekStartsOn into a time.Weekday, defaulting to Monday.
func (c CronConfig) WeekStart() time.Weekday {
	day := strings.ToLower(strings.TrimSpace(c.WeekStartsOn))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == day {
			return d
		}
	}
	return time.Monday
}

// Location resolves the configured time zone, falling back to UTC.
func (c CronConfig) Location() *time.Location {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
