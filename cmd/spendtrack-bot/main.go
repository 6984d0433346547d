package main

import (
	"context"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"spendtrack/internal/cli"
	applog "spendtrack/internal/log"
	"spendtrack/internal/telegram"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(applog.ComponentBot)

	if err := cfg.ValidateBot(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("Authorized on account", "username", api.Self.UserName, applog.FieldOperation, applog.OpStartup)

	res := cli.InitBackend(context.Background(), logger, cfg)
	bot := telegram.New(api, res.Service)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		api.StopReceivingUpdates()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	var g errgroup.Group
	g.Go(func() error {
		return bot.Run(ctx, updates)
	})
	if err := g.Wait(); err != nil {
		logger.Error("Bot stopped", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
