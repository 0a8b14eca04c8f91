package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Configはアプリ全体の設定
type Config struct {
	App   AppConfig
	DB    DBConfig
	JWT   JWTConfig
	Redis RedisConfig
	Lock  LockConfig
	Admin AdminConfig
}

type AppConfig struct {
	Port       string `envconfig:"PORT" default:"8080"`       // サーバーポート
	GoEnv      string `envconfig:"GO_ENV" default:"dev"`      // dev/prod
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`  // debug/info/warn/error
	LogFormat  string `envconfig:"LOG_FORMAT" default:"json"` // json/console
	BcryptCost int    `envconfig:"BCRYPT_COST" default:"12"`

	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type DBConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"postgres"` // postgres/sqlite

	// DATABASE_URL があれば最優先で使う
	URL string `envconfig:"DATABASE_URL"`

	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	Name     string `envconfig:"POSTGRES_DB" default:"inventory"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"inventory.db"`

	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// postgresの接続文字列
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret    string        `envconfig:"JWT_SECRET"`
	AccessTTL time.Duration `envconfig:"JWT_ACCESS_TTL" default:"15m"`
}

// 空なら商品ロックはプロセス内で取る
type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

type LockConfig struct {
	TTL           time.Duration `envconfig:"LOCK_TTL" default:"10s"`
	Wait          time.Duration `envconfig:"LOCK_WAIT" default:"5s"`
	RetryInterval time.Duration `envconfig:"LOCK_RETRY_INTERVAL" default:"50ms"`
}

// 起動時に作る管理者（両方あるときだけ）
type AdminConfig struct {
	Username string `envconfig:"ADMIN_USERNAME"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

func (a AdminConfig) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.GoEnv, "prod")
}

// Loadは.env（あれば）と環境変数から読む
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be positive")
	}
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	if c.Admin.Username != "" && c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_USERNAME is set")
	}
	return nil
}
