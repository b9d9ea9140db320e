package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig to unprefixed struct fields.
const EnvPrefix = "BAPE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Admin         AdminConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	PixGo         PixGoConfig
	Checkout      CheckoutConfig
	Reconcile     ReconcileConfig
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
	Env          string `envconfig:"BAPE_APP_ENV" required:"true"`
	Port         string `envconfig:"BAPE_APP_PORT" default:"8080"`
	PublicURL    string `envconfig:"BAPE_PUBLIC_URL"`
	LogLevel     string `envconfig:"BAPE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BAPE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"BAPE_APP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BAPE_DB_DSN"`

	Host     string `envconfig:"BAPE_DB_HOST"`
	Port     int    `envconfig:"BAPE_DB_PORT" default:"5432"`
	User     string `envconfig:"BAPE_DB_USER"`
	Password string `envconfig:"BAPE_DB_PASSWORD"`
	Name     string `envconfig:"BAPE_DB_NAME"`
	SSLMode  string `envconfig:"BAPE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAPE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAPE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAPE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAPE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAPE_REDIS_URL"`
	Address      string        `envconfig:"BAPE_REDIS_ADDR"`
	Password     string        `envconfig:"BAPE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAPE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAPE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAPE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAPE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAPE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAPE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAPE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAPE_JWT_ISSUER" default:"bape"`
	ExpirationMinutes int    `envconfig:"BAPE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// AdminConfig gates the operator dashboard. The password is supplied as an
// argon2id hash so the plaintext never lives in the environment.
type AdminConfig struct {
	PasswordHash string `envconfig:"BAPE_ADMIN_PASSWORD_HASH" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAPE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAPE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAPE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAPE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAPE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow  time.Duration `envconfig:"BAPE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit int           `envconfig:"BAPE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
}

// PixGoConfig carries the provider credentials and endpoint.
type PixGoConfig struct {
	APIKey  string        `envconfig:"BAPE_PIXGO_API_KEY"`
	BaseURL string        `envconfig:"BAPE_PIXGO_BASE_URL" default:"https://api.pixgo.io"`
	Timeout time.Duration `envconfig:"BAPE_PIXGO_TIMEOUT" default:"10s"`
}

// Configured reports whether a provider key is present. Checkout surfaces must
// check this before rendering payment UI.
func (p PixGoConfig) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

type CheckoutConfig struct {
	PollInterval    time.Duration `envconfig:"BAPE_CHECKOUT_POLL_INTERVAL" default:"5s"`
	PollTickTimeout time.Duration `envconfig:"BAPE_CHECKOUT_POLL_TICK_TIMEOUT" default:"4s"`
	MaxPollAttempts int           `envconfig:"BAPE_CHECKOUT_MAX_POLL_ATTEMPTS" default:"120"`
}

type ReconcileConfig struct {
	SweepInterval  time.Duration `envconfig:"BAPE_RECONCILE_SWEEP_INTERVAL" default:"1m"`
	StaleAfter     time.Duration `envconfig:"BAPE_RECONCILE_STALE_AFTER" default:"30s"`
	BatchLimit     int           `envconfig:"BAPE_RECONCILE_BATCH_LIMIT" default:"100"`
	LockTTL        time.Duration `envconfig:"BAPE_RECONCILE_LOCK_TTL" default:"55s"`
	AbandonCharges time.Duration `envconfig:"BAPE_RECONCILE_ABANDON_AFTER" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, val := range map[string]string{
		"BAPE_DB_HOST": db.Host,
		"BAPE_DB_USER": db.User,
		"BAPE_DB_NAME": db.Name,
	} {
		if val == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either BAPE_DB_DSN or %s are required", strings.Join(missing, ", "))
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
