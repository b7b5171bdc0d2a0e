package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "CONFIG_FILE"

type Config struct {
	Environment   string         `yaml:"env" env:"ENV"`
	HTTPPort      int            `yaml:"http_port" env:"HTTP_PORT"`
	DBDSN         string         `yaml:"db_dsn" env:"DB_DSN"`
	JWTSecret     string         `yaml:"jwt_secret" env:"JWT_SECRET"`
	TelegramToken string         `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	Currency      string         `yaml:"currency" env:"CURRENCY"`
	MigrationsDir string         `yaml:"migrations_dir" env:"MIGRATIONS_DIR"` // пусто - встроенные миграции
	Redis         RedisConfig    `yaml:"redis"`
	Midtrans      MidtransConfig `yaml:"midtrans"`
	Engine        EngineConfig   `yaml:"engine"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"` // пусто - без распределённых блокировок
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type MidtransConfig struct {
	ServerKey  string `yaml:"server_key" env:"MIDTRANS_SERVER_KEY"` // пусто - оплата отключена
	Production bool   `yaml:"production" env:"MIDTRANS_PRODUCTION"`
}

type EngineConfig struct {
	DependencyTimeout time.Duration `yaml:"dependency_timeout" env:"DEPENDENCY_TIMEOUT"`
	UnpaidSessionTTL  time.Duration `yaml:"unpaid_session_ttl" env:"UNPAID_SESSION_TTL"` // 0 - не отменять
	SweepInterval     time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
}

// Default значения, которые перекрываются YAML-файлом и окружением
func Default() *Config {
	return &Config{
		Environment: "development",
		HTTPPort:    8080,
		Currency:    "IDR",
		Engine: EngineConfig{
			DependencyTimeout: 3 * time.Second,
			UnpaidSessionTTL:  72 * time.Hour,
			SweepInterval:     time.Hour,
		},
	}
}

// Load собирает конфиг: значения по умолчанию, затем YAML из CONFIG_FILE, затем переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return load(os.Getenv(configPathEnv), nil)
}

// load environ == nil означает окружение процесса
func load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	var errs []error
	if c.DBDSN == "" {
		errs = append(errs, errors.New("DB_DSN is required but not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required but not set"))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT %d is out of range", c.HTTPPort))
	}
	if c.Engine.DependencyTimeout <= 0 {
		errs = append(errs, errors.New("DEPENDENCY_TIMEOUT must be positive"))
	}
	if c.Engine.UnpaidSessionTTL > 0 && c.Engine.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive when UNPAID_SESSION_TTL is set"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) PaymentsEnabled() bool {
	return c.Midtrans.ServerKey != ""
}
