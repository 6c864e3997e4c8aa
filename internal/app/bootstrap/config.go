package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns         int32
	KafkaConsumerGroup string

	KafkaTopicOrderRecorded   string
	KafkaTopicOrderSettled    string
	KafkaTopicOrderRefunded   string
	KafkaTopicPayoutCompleted string
	KafkaTopicDomainEvents    string
	KafkaTopicOpsEvents       string
	KafkaTopicDLQ             string

	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration
	TierRecomputeEvery   time.Duration

	JWTSecret       string
	DefaultCurrency string

	SponsorL1Rate         float64
	SponsorL2Rate         float64
	SponsorL1WindowMonths int
	SponsorL2WindowMonths int

	EventDedupTTL time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL        string   `yaml:"postgres_url"`
		RedisURL           string   `yaml:"redis_url"`
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup string   `yaml:"kafka_consumer_group"`
	} `yaml:"dependencies"`
	Topics struct {
		OrderRecorded   string `yaml:"order_recorded"`
		OrderSettled    string `yaml:"order_settled"`
		OrderRefunded   string `yaml:"order_refunded"`
		PayoutCompleted string `yaml:"payout_completed"`
		DomainEvents    string `yaml:"domain_events"`
		OpsEvents       string `yaml:"ops_events"`
		DLQ             string `yaml:"dlq"`
	} `yaml:"topics"`
	Commission struct {
		SponsorL1Rate         float64 `yaml:"sponsor_l1_rate"`
		SponsorL2Rate         float64 `yaml:"sponsor_l2_rate"`
		SponsorL1WindowMonths int     `yaml:"sponsor_l1_window_months"`
		SponsorL2WindowMonths int     `yaml:"sponsor_l2_window_months"`
		DefaultCurrency       string  `yaml:"default_currency"`
	} `yaml:"commission"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                 "buyla-attribution-engine",
		HTTPPort:                  8080,
		GRPCPort:                  9090,
		MaxDBConns:                20,
		KafkaConsumerGroup:        "buyla-attribution-engine",
		KafkaTopicOrderRecorded:   "order.recorded",
		KafkaTopicOrderSettled:    "order.settled",
		KafkaTopicOrderRefunded:   "order.refunded",
		KafkaTopicPayoutCompleted: "payout.completed",
		KafkaTopicDomainEvents:    "attribution.domain_events",
		KafkaTopicOpsEvents:       "attribution.ops_events",
		KafkaTopicDLQ:             "buyla-attribution-engine.dlq",
		OutboxPollInterval:        2 * time.Second,
		OutboxBatchSize:           100,
		ConsumerPollInterval:      2 * time.Second,
		TierRecomputeEvery:        24 * time.Hour,
		DefaultCurrency:           "EUR",
		SponsorL1Rate:             0.05,
		SponsorL2Rate:             0.02,
		SponsorL1WindowMonths:     12,
		SponsorL2WindowMonths:     6,
		EventDedupTTL:             7 * 24 * time.Hour,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Topics.OrderRecorded != "" {
			cfg.KafkaTopicOrderRecorded = f.Topics.OrderRecorded
		}
		if f.Topics.OrderSettled != "" {
			cfg.KafkaTopicOrderSettled = f.Topics.OrderSettled
		}
		if f.Topics.OrderRefunded != "" {
			cfg.KafkaTopicOrderRefunded = f.Topics.OrderRefunded
		}
		if f.Topics.PayoutCompleted != "" {
			cfg.KafkaTopicPayoutCompleted = f.Topics.PayoutCompleted
		}
		if f.Topics.DomainEvents != "" {
			cfg.KafkaTopicDomainEvents = f.Topics.DomainEvents
		}
		if f.Topics.OpsEvents != "" {
			cfg.KafkaTopicOpsEvents = f.Topics.OpsEvents
		}
		if f.Topics.DLQ != "" {
			cfg.KafkaTopicDLQ = f.Topics.DLQ
		}
		if f.Commission.SponsorL1Rate > 0 {
			cfg.SponsorL1Rate = f.Commission.SponsorL1Rate
		}
		if f.Commission.SponsorL2Rate > 0 {
			cfg.SponsorL2Rate = f.Commission.SponsorL2Rate
		}
		if f.Commission.SponsorL1WindowMonths > 0 {
			cfg.SponsorL1WindowMonths = f.Commission.SponsorL1WindowMonths
		}
		if f.Commission.SponsorL2WindowMonths > 0 {
			cfg.SponsorL2WindowMonths = f.Commission.SponsorL2WindowMonths
		}
		if f.Commission.DefaultCurrency != "" {
			cfg.DefaultCurrency = f.Commission.DefaultCurrency
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.DefaultCurrency = envOrDefault("DEFAULT_CURRENCY", cfg.DefaultCurrency)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.TierRecomputeEvery = time.Duration(envInt("TIER_RECOMPUTE_HOURS", int(cfg.TierRecomputeEvery.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
