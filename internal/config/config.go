package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	maxConfigFileSize = 1024 * 1024
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
}

type AppConfig struct {
	AppName     string `koanf:"name"`
	Environment string `koanf:"env"`
	HTTPPort    string `koanf:"http_port"`
}

type DatabaseConfig struct {
	Driver        string `koanf:"driver"`
	DBHost        string `koanf:"host"`
	DBPort        string `koanf:"port"`
	DBName        string `koanf:"name"`
	DBUser        string `koanf:"user"`
	DBPassword    string `koanf:"password"`
	DBSSLMode     string `koanf:"ssl_mode"`
	MigrationsDir string `koanf:"migrations_dir"`

	ConnectTimeout        time.Duration `koanf:"connect_timeout"`
	PoolMaxConns          int32         `koanf:"pool_max_conns"`
	PoolMinConns          int32         `koanf:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `koanf:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `koanf:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `koanf:"pool_health_check_period"`
}

type RedisConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type SessionConfig struct {
	Secret       string        `koanf:"secret"`
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
	BcryptCost   int           `koanf:"bcrypt_cost"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// envKeys maps the environment variable names to koanf keys.
var envKeys = map[string]string{
	"APP_NAME":                    "app.name",
	"APP_ENV":                     "app.env",
	"HTTP_PORT":                   "app.http_port",
	"DB_DRIVER":                   "database.driver",
	"DB_HOST":                     "database.host",
	"DB_PORT":                     "database.port",
	"DB_NAME":                     "database.name",
	"DB_USER":                     "database.user",
	"DB_PASSWORD":                 "database.password",
	"DB_SSL_MODE":                 "database.ssl_mode",
	"MIGRATIONS_DIR":              "database.migrations_dir",
	"DB_CONNECT_TIMEOUT":          "database.connect_timeout",
	"DB_POOL_MAX_CONNS":           "database.pool_max_conns",
	"DB_POOL_MIN_CONNS":           "database.pool_min_conns",
	"DB_POOL_MAX_CONN_LIFETIME":   "database.pool_max_conn_lifetime",
	"DB_POOL_MAX_CONN_IDLE_TIME":  "database.pool_max_conn_idle_time",
	"DB_POOL_HEALTH_CHECK_PERIOD": "database.pool_health_check_period",
	"REDIS_HOST":                  "redis.host",
	"REDIS_PORT":                  "redis.port",
	"REDIS_PASSWORD":              "redis.password",
	"REDIS_DB":                    "redis.db",
	"SESSION_SECRET":              "session.secret",
	"SESSION_TTL":                 "session.ttl",
	"SESSION_COOKIE_NAME":         "session.cookie_name",
	"SESSION_COOKIE_SECURE":       "session.cookie_secure",
	"BCRYPT_COST":                 "session.bcrypt_cost",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
}

// Load reads the optional YAML file named by CONFIG_FILE, then overrides it
// with environment variables.
func Load() (Config, error) {
	return LoadWithFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

func LoadWithFile(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.trim()
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(content) > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return content, nil
}

func (c *Config) trim() {
	c.App.AppName = strings.TrimSpace(c.App.AppName)
	c.App.Environment = strings.TrimSpace(c.App.Environment)
	c.App.HTTPPort = strings.TrimSpace(c.App.HTTPPort)
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Database.DBHost = strings.TrimSpace(c.Database.DBHost)
	c.Database.DBPort = strings.TrimSpace(c.Database.DBPort)
	c.Database.DBName = strings.TrimSpace(c.Database.DBName)
	c.Database.DBUser = strings.TrimSpace(c.Database.DBUser)
	c.Database.DBSSLMode = strings.TrimSpace(c.Database.DBSSLMode)
	c.Redis.Host = strings.TrimSpace(c.Redis.Host)
	c.Redis.Port = strings.TrimSpace(c.Redis.Port)
	c.Session.Secret = strings.TrimSpace(c.Session.Secret)
	c.Session.CookieName = strings.TrimSpace(c.Session.CookieName)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func applyDefaults(c *Config) {
	if c.App.AppName == "" {
		c.App.AppName = "todolist"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.HTTPPort == "" {
		c.App.HTTPPort = "8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.DBPort == "" {
		c.Database.DBPort = "5432"
	}
	if c.Database.DBSSLMode == "" {
		c.Database.DBSSLMode = "disable"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}
	if c.Database.ConnectTimeout <= 0 {
		c.Database.ConnectTimeout = 5 * time.Second
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 14 * 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "todolist_session"
	}
	if c.Session.BcryptCost <= 0 {
		c.Session.BcryptCost = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate reports every missing required key at once.
func (c Config) Validate() error {
	var missing []string
	if c.Session.Secret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DBHost == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.Database.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.App.Environment, "production")
}
