package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	postgres "github.com/telepledge/donation-relay/internal/storage/postgres"
)

// Config aggregates runtime configuration grouped by concern.
type Config struct {
	ServiceName string
	Telegram    TelegramConfig
	Stripe      StripeConfig
	Charity     CharityConfig
	Donation    DonationConfig
	Kafka       KafkaConfig
	Database    postgres.DatabaseConfig
	Email       EmailConfig
}

type TelegramConfig struct {
	BotToken string
}

type StripeConfig struct {
	BaseURL        string
	PublishableKey string
}

type CharityConfig struct {
	BaseURL    string
	CampaignID string
}

type DonationConfig struct {
	AmountUSD int
}

type KafkaConfig struct {
	Brokers        []string
	DonationsTopic string
	EmailGroup     string
}

type EmailConfig struct {
	FallbackRecipient string
}

// Load reads configuration from environment variables, applying sensible
// defaults. The bot token has no default; the botd binary refuses to start
// without it.
func Load() (Config, error) {
	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "donation-relay"),
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		Stripe: StripeConfig{
			BaseURL:        getEnv("STRIPE_API_BASE", "https://api.stripe.com"),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", "pk_test_placeholder"),
		},
		Charity: CharityConfig{
			BaseURL:    getEnv("CHARITY_API_BASE", "https://www.charitywater.org"),
			CampaignID: getEnv("CHARITY_CAMPAIGN_ID", "a5826748-d59d-4f86-a042-1e4c030720d5"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			DonationsTopic: getEnv("KAFKA_DONATIONS_TOPIC", "donations.v1"),
			EmailGroup:     getEnv("KAFKA_EMAIL_GROUP_ID", "email-workers"),
		},
		Email: EmailConfig{
			FallbackRecipient: getEnv("DEMO_TO_EMAIL", "test@example.local"),
		},
	}

	amountStr := getEnv("DONATION_AMOUNT_USD", "5")
	amount, err := strconv.Atoi(amountStr)
	if err != nil || amount < 1 {
		return Config{}, fmt.Errorf("parse DONATION_AMOUNT_USD %q: must be a positive integer", amountStr)
	}
	cfg.Donation = DonationConfig{AmountUSD: amount}

	portStr := getEnv("DONATION_DB_PORT", "5432")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Config{}, fmt.Errorf("parse DONATION_DB_PORT: %w", err)
	}

	// The ledger is optional: leaving DONATION_DB_HOST empty disables it.
	cfg.Database = postgres.DatabaseConfig{
		Host:     os.Getenv("DONATION_DB_HOST"),
		Port:     port,
		Database: getEnv("DONATION_DB_NAME", "donationrelay"),
		User:     getEnv("DONATION_DB_USER", "donationrelayadmin"),
		Password: getEnv("DONATION_DB_PASSWORD", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
