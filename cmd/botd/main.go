package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/telepledge/donation-relay/internal/bot"
	"github.com/telepledge/donation-relay/internal/charity"
	appconfig "github.com/telepledge/donation-relay/internal/config"
	"github.com/telepledge/donation-relay/internal/events"
	"github.com/telepledge/donation-relay/internal/pledge"
	"github.com/telepledge/donation-relay/internal/session"
	postgres "github.com/telepledge/donation-relay/internal/storage/postgres"
	"github.com/telepledge/donation-relay/internal/stripe"
	"github.com/telepledge/donation-relay/internal/telemetry"
)

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config) {
	var cleanup func()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cleanup = telemetry.InitTracer(cfg.ServiceName)
			return nil
		},
		OnStop: func(context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})
}

// newSQLDB opens the optional attempts ledger. With no DONATION_DB_HOST
// configured the bot runs without a database.
func newSQLDB(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) (*sql.DB, error) {
	if cfg.Database.Host == "" {
		logger.Printf("No ledger database configured; attempts will not be recorded")
		return nil, nil
	}
	logger.Printf("Connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
	db, err := postgres.Open(cfg.Database)
	if err != nil {
		logger.Printf("WARNING: failed to connect to database: %v", err)
		// Keep the bot running without the ledger.
		return nil, nil
	}
	logger.Printf("Database connection established successfully")
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// newKafkaProducer constructs a shared Kafka producer and binds its
// lifecycle to Fx.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle) *events.Producer {
	prod := events.NewProducer(cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

func newPipeline(cfg appconfig.Config, prod *events.Producer, repo *postgres.Repository) *pledge.Pipeline {
	return pledge.New(
		stripe.NewClient(cfg.Stripe.BaseURL, cfg.Stripe.PublishableKey),
		charity.NewClient(cfg.Charity.BaseURL, cfg.Charity.CampaignID),
		prod,
		repo,
		cfg.Kafka.DonationsTopic,
		cfg.Donation.AmountUSD,
	)
}

func newBotAPI(cfg appconfig.Config) (*tgbotapi.BotAPI, error) {
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	return tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
}

func registerPoller(lc fx.Lifecycle, logger *log.Logger, shutdowner fx.Shutdowner, api *tgbotapi.BotAPI, handler *bot.Handler) {
	poller := bot.NewPoller(api, handler)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("Bot is running...")
				poller.Run(ctx)
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			appconfig.Load,
			newLogger,
			newSQLDB,
			func(db *sql.DB) *postgres.Repository { return postgres.NewRepository(db) },
			newKafkaProducer,
			newPipeline,
			session.NewManager,
			bot.NewHandler,
			newBotAPI,
		),
		fx.Invoke(
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s...", cfg.ServiceName)
			},
			setupTelemetry,
			registerPoller,
		),
	)

	app.Run()
}
