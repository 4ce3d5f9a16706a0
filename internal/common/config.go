package common

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	HTTPPort    int    `env:"HTTP_PORT" env-default:"8080"`
	MetricsPort int    `env:"METRICS_PORT"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	DatabaseURL      string        `env:"DATABASE_URL"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	BusinessCacheTTL time.Duration `env:"BUSINESS_CACHE_TTL" env-default:"5m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:","`
	OutcomeTopic string   `env:"OUTCOME_TOPIC" env-default:"notifications.outcomes"`

	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
	AssetBaseURL string `env:"ASSET_BASE_URL" env-default:"http://localhost:8080"`

	DefaultMailDriver string `env:"DEFAULT_MAIL_DRIVER" env-default:"smtp"`
	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUser          string `env:"SMTP_USER"`
	SMTPPass          string `env:"SMTP_PASS"`
	SMTPFrom          string `env:"SMTP_FROM"`

	SESEndpoint      string `env:"SES_ENDPOINT" env-default:"https://ses.local"`
	SESAPIKey        string `env:"SES_API_KEY"`
	SendGridEndpoint string `env:"SENDGRID_ENDPOINT" env-default:"https://sendgrid.local"`
	SendGridAPIKey   string `env:"SENDGRID_API_KEY"`

	ServiceName string
}

func LoadConfig(service string) (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.ServiceName = service
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = cfg.HTTPPort + 1000
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid value for HTTP_PORT: %d", cfg.HTTPPort)
	}
	return cfg, nil
}
