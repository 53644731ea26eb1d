package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PIZZAPALACE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PIZZAPALACE_DB_DSN"
	EnvDBHost = "PIZZAPALACE_DB_HOST"
	EnvDBUser = "PIZZAPALACE_DB_USER"
	EnvDBName = "PIZZAPALACE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Cart         CartConfig
	Stripe       StripeConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PIZZAPALACE_APP_ENV" required:"true"`
	Port         string `envconfig:"PIZZAPALACE_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"PIZZAPALACE_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"PIZZAPALACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIZZAPALACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PIZZAPALACE_DB_DSN"`
	Driver string `envconfig:"PIZZAPALACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIZZAPALACE_DB_HOST"`
	LegacyPort     int    `envconfig:"PIZZAPALACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIZZAPALACE_DB_USER"`
	LegacyPassword string `envconfig:"PIZZAPALACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIZZAPALACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIZZAPALACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIZZAPALACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIZZAPALACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIZZAPALACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIZZAPALACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIZZAPALACE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PIZZAPALACE_REDIS_ADDR"`
	Password     string        `envconfig:"PIZZAPALACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIZZAPALACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIZZAPALACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIZZAPALACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIZZAPALACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIZZAPALACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIZZAPALACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PIZZAPALACE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PIZZAPALACE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PIZZAPALACE_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIZZAPALACE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIZZAPALACE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIZZAPALACE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIZZAPALACE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIZZAPALACE_ARGON_KEY_LEN" default:"32"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"PIZZAPALACE_CART_TTL" default:"72h"`
}

type StripeConfig struct {
	APIKey         string        `envconfig:"PIZZAPALACE_STRIPE_API_KEY"`
	Secret         string        `envconfig:"PIZZAPALACE_STRIPE_SECRET"`
	Env            string        `envconfig:"PIZZAPALACE_STRIPE_ENV" default:"test"`
	Currency       string        `envconfig:"PIZZAPALACE_STRIPE_CURRENCY" default:"usd"`
	RequestTimeout time.Duration `envconfig:"PIZZAPALACE_STRIPE_REQUEST_TIMEOUT" default:"10s"`
	EventTTL       time.Duration `envconfig:"PIZZAPALACE_STRIPE_EVENT_TTL" default:"720h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PIZZAPALACE_AUTO_MIGRATE" default:"false"`
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
