package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
)

const updateTimeoutSeconds = 30

// Bot runs the long-polling loop and feeds updates into the handlers.
type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *Handlers
	logger   logrus.FieldLogger
}

func New(api *tgbotapi.BotAPI, handlers *Handlers) *Bot {
	return &Bot{
		api:      api,
		handlers: handlers,
		logger:   factory.NewModuleLogger("bot"),
	}
}

// Run blocks until the context is cancelled or the update channel closes.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(updateCfg)

	b.logger.WithField("username", b.api.Self.UserName).Info("Bot polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handlers.HandleUpdate(ctx, update)
		}
	}
}
