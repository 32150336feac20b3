package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type Config struct {
	Driver         string        `env:"DB_DRIVER" envDefault:"mysql"`
	DSN            string        `env:"DATABASE_URL"`
	Host           string        `env:"DB_HOST"`
	Port           int           `env:"DB_PORT"`
	User           string        `env:"DB_USER"`
	Password       string        `env:"DB_PASSWORD"`
	Name           string        `env:"DB_NAME"`
	TimeZone       string        `env:"DB_TIMEZONE"`
	MaxConns       int           `env:"DB_MAX_CONNS" envDefault:"5"`
	Timeout        time.Duration `env:"DB_TIMEOUT" envDefault:"5s"`
	ConnectRetries int           `env:"DB_CONNECT_RETRIES" envDefault:"3"`
	RetryDelay     time.Duration `env:"DB_RETRY_DELAY" envDefault:"500ms"`
}

// ConfigFromEnv reads DB config from environment variables. Unset connection
// fields stay empty: a blank host or user is passed through to the driver.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
	if cfg.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
			return Config{}, fmt.Errorf("parse env: DB_TIMEZONE %q: %w", cfg.TimeZone, err)
		}
	}
	return cfg, nil
}

// DataSourceName returns DSN when set, otherwise builds one for the driver.
func (c Config) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case DriverPostgres:
		return c.postgresDSN()
	case DriverSQLite:
		if c.Name == "" {
			return ":memory:"
		}
		return c.Name
	default:
		return c.mysqlDSN()
	}
}

func (c Config) address(defaultPort int) string {
	if c.Host == "" {
		return ""
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) mysqlDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.address(3306)
	mc.DBName = c.Name
	mc.ParseTime = true
	if c.TimeZone != "" {
		// unknown zones are rejected by ConfigFromEnv
		if loc, err := time.LoadLocation(c.TimeZone); err == nil {
			mc.Loc = loc
		}
	}
	return mc.FormatDSN()
}

func (c Config) postgresDSN() string {
	u := url.URL{Scheme: "postgres", Host: c.address(5432), Path: "/" + c.Name}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	if c.TimeZone != "" {
		q.Set("timezone", c.TimeZone)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// MarshalLogObject lets the effective config be logged without the password.
func (c Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("driver", c.Driver)
	enc.AddString("host", c.Host)
	if c.Port != 0 {
		enc.AddInt("port", c.Port)
	}
	enc.AddString("user", c.User)
	enc.AddString("database", c.Name)
	if c.Password != "" {
		enc.AddString("password", "********")
	}
	enc.AddBool("dsn_override", c.DSN != "")
	return nil
}

// Open opens a *sqlx.DB and verifies connectivity with a ping.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.Driver == "" {
		return nil, errors.New("db driver is required")
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// one connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 5
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.Timeout))
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}
