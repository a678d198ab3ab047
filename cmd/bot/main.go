package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subscription_reminder_bot/internal/app"
	"subscription_reminder_bot/internal/domain/preference"
	"subscription_reminder_bot/internal/infra/cache"
	"subscription_reminder_bot/internal/infra/config"
	idb "subscription_reminder_bot/internal/infra/database"
	"subscription_reminder_bot/internal/infra/logger"
	"subscription_reminder_bot/internal/infra/scheduler"
	"subscription_reminder_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Subscription Reminder Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"log_level":          cfg.LogLevel,
		"environment":        cfg.Environment,
		"owner_id":           cfg.OwnerTelegramID,
		"preference_backend": cfg.PreferenceBackend,
		"timezone":           cfg.Location.String(),
	}).Info("Configuration loaded")

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	// Initialize Repositories
	subRepo := idb.NewPostgresSubscriptionRepository(db, logger.Component("subscription_repository"))

	var prefStore preference.Store
	switch cfg.PreferenceBackend {
	case config.BackendRedis:
		redisClient, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to Redis")
		}
		defer redisClient.Close()
		prefStore = cache.NewRedisPreferenceStore(redisClient, cache.DefaultHashKey)
	default:
		prefStore = idb.NewPostgresPreferenceStore(db)
	}
	mainLogger.WithField("backend", cfg.PreferenceBackend).Info("Preference store initialized.")

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	notifier := telegram.NewNotifier(telegram.NewTelebotAdapter(bot), cfg.OwnerTelegramID, logger.Component("notifier"))

	// Initialize Services
	reminderService := app.NewReminderService(subRepo, prefStore, notifier, logger.Component("reminder_service"))
	subscriptionService := app.NewSubscriptionService(subRepo, prefStore, cfg.OwnerTelegramID)
	settingsService := app.NewSettingsService(prefStore, reminderService, app.DeliverySettings{
		NotifyHour:     cfg.NotifyHour,
		NotifyMinute:   cfg.NotifyMinute,
		CurrencySymbol: cfg.CurrencySymbol,
	}, cfg.OwnerTelegramID)
	mainLogger.Info("Services initialized.")

	// Register Handlers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handlerLogger := logger.Component("telegram")
	telegram.RegisterBotCommands(bot, cfg, handlerLogger)
	telegram.RegisterSubscriptionHandlers(ctx, bot, subscriptionService, cfg, handlerLogger)
	telegram.RegisterSettingsHandlers(ctx, bot, settingsService, cfg, handlerLogger)
	telegram.RegisterReminderCallbacks(ctx, bot, subscriptionService)
	mainLogger.Info("Command handlers registered.")

	// Initialize ReminderScheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		settingsService,
		logger.Component("scheduler"),
		cfg.CronSpecDailyScan,
		cfg.ScanTimeout,
		cfg.Location,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start reminder scheduler")
	}

	mainLogger.Info("Application setup complete. Bot is starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	cancel()
	reminderScheduler.Stop()
	bot.Stop()
	if err := notifier.CancelAll(context.Background()); err != nil {
		mainLogger.WithError(err).Warn("Could not cancel pending reminders")
	}
	mainLogger.Info("Application shut down gracefully.")
}
