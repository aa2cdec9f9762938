package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/finny/internal/bill"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Finny"`
		Port int    `envconfig:"PORT" default:"8080"`
		// Store selects the persistence backend: postgres or memory.
		Store string `envconfig:"STORE" default:"postgres"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"finny"`

		// AutoMigrate applies pending migrations when a binary starts.
		AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Bills struct {
		LookAhead          int    `envconfig:"BILLS_LOOKAHEAD" default:"12"`
		UpcomingWindowDays int    `envconfig:"BILLS_UPCOMING_WINDOW_DAYS" default:"7"`
		PaymentPrefix      string `envconfig:"BILLS_PAYMENT_PREFIX" default:"Payment: "`
	}
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func (c *Config) BillPolicy() bill.Policy {
	return bill.Policy{
		LookAhead:          c.Bills.LookAhead,
		PaymentPrefix:      c.Bills.PaymentPrefix,
		UpcomingWindowDays: c.Bills.UpcomingWindowDays,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.App.Store != StorePostgres && cfg.App.Store != StoreMemory {
		return nil, fmt.Errorf("unknown STORE %q", cfg.App.Store)
	}

	return &cfg, nil
}
