// Package config содержит логику чтения конфигурации сервиса бронирований.
package config

import (
	"flag"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/rental-pricing/internal/pricing"
)

const defaultRunAddress = "localhost:8080"

// Config содержит параметры конфигурации сервиса бронирований.
type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseURI   string `env:"DATABASE_URI"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RabbitMQURL   string `env:"RABBITMQ_URL"`
	RelayAddress  string `env:"RELAY_ADDRESS"`
	AuthSecret    string `env:"AUTH_SECRET"`

	ServiceFeeBps  int64 `env:"SERVICE_FEE_BPS" envDefault:"1400"`
	VATBps         int64 `env:"VAT_BPS" envDefault:"500"`
	CommissionBps  int64 `env:"COMMISSION_BPS" envDefault:"1200"`
	ProcessingBps  int64 `env:"PROCESSING_BPS" envDefault:"290"`
	ProcessingFlat int64 `env:"PROCESSING_FLAT" envDefault:"100"`

	PayoutReleaseHour int           `env:"PAYOUT_RELEASE_HOUR" envDefault:"15"`
	PlatformTimezone  string        `env:"PLATFORM_TIMEZONE" envDefault:"Asia/Dubai"`
	QuoteTTL          time.Duration `env:"QUOTE_TTL" envDefault:"15m"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddr := cfg.RedisAddr
	envRabbitMQURL := cfg.RabbitMQURL
	envRelayAddress := cfg.RelayAddress

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "redis address for quote storage")
	flag.StringVar(&cfg.RabbitMQURL, "amqp", "", "RabbitMQ URL for booking events")
	flag.StringVar(&cfg.RelayAddress, "relay", "", "messaging relay address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddr != "" {
		cfg.RedisAddr = envRedisAddr
	}
	if envRabbitMQURL != "" {
		cfg.RabbitMQURL = envRabbitMQURL
	}
	if envRelayAddress != "" {
		cfg.RelayAddress = envRelayAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	if err := cfg.FeeRates().Validate(); err != nil {
		return nil, fmt.Errorf("fee rates: %w", err)
	}
	if _, err := cfg.PayoutRules(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FeeRates возвращает ставки сборов из конфигурации.
func (c *Config) FeeRates() pricing.FeeRates {
	return pricing.FeeRates{
		ServiceBps:     c.ServiceFeeBps,
		VATBps:         c.VATBps,
		CommissionBps:  c.CommissionBps,
		ProcessingBps:  c.ProcessingBps,
		ProcessingFlat: pricing.Money(c.ProcessingFlat),
	}
}

// PayoutRules возвращает правила выплат с часовым поясом платформы.
func (c *Config) PayoutRules() (pricing.PayoutRules, error) {
	if c.PayoutReleaseHour < 0 || c.PayoutReleaseHour > 23 {
		return pricing.PayoutRules{}, fmt.Errorf("payout release hour must be in [0, 23], got %d", c.PayoutReleaseHour)
	}

	loc, err := time.LoadLocation(c.PlatformTimezone)
	if err != nil {
		return pricing.PayoutRules{}, fmt.Errorf("load platform timezone %q: %w", c.PlatformTimezone, err)
	}

	return pricing.PayoutRules{ReleaseHour: c.PayoutReleaseHour, Location: loc}, nil
}
