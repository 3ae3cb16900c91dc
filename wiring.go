package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	alarmapp "refinery-ops/internal/alarms/application"
	alarmrepo "refinery-ops/internal/alarms/infrastructure/postgres"
	"refinery-ops/internal/alarms/notify"
	"refinery-ops/internal/audit"
	"refinery-ops/internal/config"
	dashboardapp "refinery-ops/internal/dashboard/application"
	equipmentapp "refinery-ops/internal/equipment/application"
	equipmentrepo "refinery-ops/internal/equipment/infrastructure/postgres"
	eventsapp "refinery-ops/internal/events/application"
	eventsrepo "refinery-ops/internal/events/infrastructure/postgres"
	"refinery-ops/internal/platform/postgres"
	qualityapp "refinery-ops/internal/quality/application"
	qualityrepo "refinery-ops/internal/quality/infrastructure/postgres"
	usersapp "refinery-ops/internal/users/application"
	usersrepo "refinery-ops/internal/users/infrastructure/postgres"
	waterapp "refinery-ops/internal/water/application"
	waterrepo "refinery-ops/internal/water/infrastructure/postgres"
)

// app holds the services shared by the serve and digest commands.
type app struct {
	db        *sql.DB
	audit     *audit.Repository
	users     *usersapp.Service
	water     *waterapp.Service
	tests     *qualityapp.TestService
	standards *qualityapp.StandardService
	equipment *equipmentapp.Service
	events    *eventsapp.Service
	alarms    *alarmapp.Service
	dashboard *dashboardapp.Service
	// channel is nil when no notification channel is configured.
	channel notify.Channel
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &app{db: db, audit: audit.NewRepository(db)}
	if err := a.wire(cfg, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(cfg config.Config, logger *zap.Logger) error {
	readingRepo := waterrepo.NewReadingRepository(a.db)
	testRepo := qualityrepo.NewTestRepository(a.db)
	standardRepo := qualityrepo.NewStandardRepository(a.db)
	thresholdRepo := alarmrepo.NewThresholdRepository(a.db)

	channel, err := buildChannel(cfg.Alerts)
	if err != nil {
		return err
	}
	a.channel = channel

	alarmOpts := []alarmapp.ServiceOption{
		alarmapp.WithNotifyTimeout(cfg.Alerts.NotifyTimeout),
		alarmapp.WithLogger(logger.Named("alarms")),
	}
	if channel != nil {
		tpl, err := notify.NewTemplate(cfg.Alerts.Template)
		if err != nil {
			return fmt.Errorf("alert template: %w", err)
		}
		notifier, err := notify.NewNotifier(channel, tpl,
			notify.WithDedupeWindow(cfg.Alerts.DedupeWindow),
			notify.WithLogger(logger.Named("notify")),
		)
		if err != nil {
			return fmt.Errorf("alert notifier: %w", err)
		}
		alarmOpts = append(alarmOpts, alarmapp.WithNotifier(notifier))
		logger.Info("alert notifications enabled", zap.String("channel", channel.Name()))
	}
	if a.alarms, err = alarmapp.NewService(thresholdRepo, readingRepo, testRepo, standardRepo, alarmOpts...); err != nil {
		return fmt.Errorf("alarm service: %w", err)
	}

	if a.water, err = waterapp.NewService(readingRepo,
		waterapp.WithObserver(a.alarms),
		waterapp.WithLogger(logger.Named("water")),
	); err != nil {
		return fmt.Errorf("water service: %w", err)
	}
	if a.tests, err = qualityapp.NewTestService(testRepo, standardRepo,
		qualityapp.WithObserver(a.alarms),
		qualityapp.WithLogger(logger.Named("quality")),
	); err != nil {
		return fmt.Errorf("quality test service: %w", err)
	}
	if a.standards, err = qualityapp.NewStandardService(standardRepo, qualityapp.WithLogger(logger.Named("quality"))); err != nil {
		return fmt.Errorf("standard service: %w", err)
	}
	if a.equipment, err = equipmentapp.NewService(equipmentrepo.NewEquipmentRepository(a.db), equipmentapp.WithLogger(logger.Named("equipment"))); err != nil {
		return fmt.Errorf("equipment service: %w", err)
	}
	if a.events, err = eventsapp.NewService(eventsrepo.NewEventRepository(a.db), eventsapp.WithLogger(logger.Named("events"))); err != nil {
		return fmt.Errorf("events service: %w", err)
	}
	if a.users, err = usersapp.NewService(usersrepo.NewProfileRepository(a.db), usersapp.WithLogger(logger.Named("users"))); err != nil {
		return fmt.Errorf("users service: %w", err)
	}
	if a.dashboard, err = dashboardapp.NewService(dashboardapp.Sources{
		Water:     a.water,
		Quality:   a.tests,
		Equipment: a.equipment,
		Events:    a.events,
		Alerts:    a.alarms,
	}, dashboardapp.WithWindow(cfg.Dashboard.Window), dashboardapp.WithLogger(logger.Named("dashboard"))); err != nil {
		return fmt.Errorf("dashboard service: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// buildChannel returns the configured notification channels, or nil when none is set.
func buildChannel(cfg config.AlertConfig) (notify.Channel, error) {
	var channels []notify.Channel
	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookChannel(cfg.WebhookURL, notify.WithHTTPClient(&http.Client{Timeout: cfg.NotifyTimeout}))
		if err != nil {
			return nil, err
		}
		channels = append(channels, webhook)
	}
	if cfg.TelegramToken != "" {
		bot, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("telegram bot: %w", err)
		}
		telegram, err := notify.NewTelegramChannel(bot, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		channels = append(channels, telegram)
	}
	switch len(channels) {
	case 0:
		return nil, nil
	case 1:
		return channels[0], nil
	default:
		return notify.NewMultiChannel(channels...), nil
	}
}
