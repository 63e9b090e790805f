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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Shipping     ShippingConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
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
	Env          string `envconfig:"RUIZ_APP_ENV" required:"true"`
	Port         string `envconfig:"RUIZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RUIZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RUIZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RUIZ_DB_DSN"`
	Driver string `envconfig:"RUIZ_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"RUIZ_DB_HOST"`
	Port     int    `envconfig:"RUIZ_DB_PORT" default:"5432"`
	User     string `envconfig:"RUIZ_DB_USER"`
	Password string `envconfig:"RUIZ_DB_PASSWORD"`
	Name     string `envconfig:"RUIZ_DB_NAME"`
	SSLMode  string `envconfig:"RUIZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RUIZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RUIZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RUIZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RUIZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RUIZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RUIZ_REDIS_ADDR"`
	Password     string        `envconfig:"RUIZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"RUIZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RUIZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RUIZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RUIZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RUIZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RUIZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RUIZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RUIZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RUIZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RUIZ_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RUIZ_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RUIZ_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RUIZ_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RUIZ_ARGON_KEY_LEN" default:"32"`
}

// ShippingConfig drives the zone flat-fee rule. Amounts are minor currency
// units (poisha for BDT).
type ShippingConfig struct {
	InsideCityFee         int64 `envconfig:"RUIZ_SHIPPING_INSIDE_CITY_FEE" default:"6000"`
	OutsideCityFee        int64 `envconfig:"RUIZ_SHIPPING_OUTSIDE_CITY_FEE" default:"12000"`
	FreeDeliveryThreshold int64 `envconfig:"RUIZ_SHIPPING_FREE_THRESHOLD" default:"500000"`
}

type CartConfig struct {
	SessionTTL time.Duration `envconfig:"RUIZ_CART_SESSION_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RUIZ_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"RUIZ_CRON_LOCK_TTL" default:"2h"`
}

type RateLimitConfig struct {
	LoginLimit  int64         `envconfig:"RUIZ_RATE_LIMIT_LOGIN" default:"10"`
	LoginWindow time.Duration `envconfig:"RUIZ_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RUIZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RUIZ_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
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
