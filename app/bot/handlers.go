package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
	"github.com/vibast-solutions/ms-go-paybot/app/payment"
	"github.com/vibast-solutions/ms-go-paybot/app/service"
	"github.com/vibast-solutions/ms-go-paybot/config"
)

// Callback data values wired to the inline keyboards.
const (
	callbackSubscribe     = "subscribe"
	callbackHelp          = "help"
	callbackStatus        = "status"
	callbackCreatePayment = "create_payment"
	callbackCancel        = "cancel"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handlers reacts to chat commands and inline-keyboard callbacks.
type Handlers struct {
	api           sender
	subscriptions *service.SubscriptionService
	provider      payment.Provider
	subCfg        config.SubscriptionConfig
	adminIDs      []int64
	logger        logrus.FieldLogger
}

func NewHandlers(
	api sender,
	subscriptions *service.SubscriptionService,
	provider payment.Provider,
	subCfg config.SubscriptionConfig,
	adminIDs []int64,
) *Handlers {
	return &Handlers{
		api:           api,
		subscriptions: subscriptions,
		provider:      provider,
		subCfg:        subCfg,
		adminIDs:      adminIDs,
		logger:        factory.NewModuleLogger("bot-handlers"),
	}
}

func (h *Handlers) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		h.handleCommand(update.Message)
	}
}

func (h *Handlers) handleCommand(msg *tgbotapi.Message) {
	// Channel posts carry no sender; every command below is per-user.
	if msg.From == nil {
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(msg.Chat.ID, msg.From)
	case "help":
		h.handleHelp(msg.Chat.ID)
	case "subscribe":
		h.handleSubscribe(msg.Chat.ID, msg.From.ID)
	case "status":
		h.handleStatus(msg.Chat.ID, msg.From.ID)
	case "admin":
		h.handleAdmin(msg.Chat.ID, msg.From.ID)
	}
}

func (h *Handlers) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	switch query.Data {
	case callbackSubscribe:
		h.handleSubscribe(chatID, userID)
	case callbackHelp:
		h.handleHelp(chatID)
	case callbackStatus:
		h.handleStatus(chatID, userID)
	case callbackCreatePayment:
		h.createPayment(ctx, chatID, userID)
	case callbackCancel:
		h.send(tgbotapi.NewMessage(chatID, "Operation cancelled."))
	default:
		h.answerCallback(query.ID, "Unknown action")
		return
	}

	h.answerCallback(query.ID, "")
}

func (h *Handlers) handleStart(chatID int64, from *tgbotapi.User) {
	name := "there"
	if from != nil && from.FirstName != "" {
		name = from.FirstName
	}

	text := fmt.Sprintf(
		"Hi, %s!\n\n"+
			"This bot sells access to our private channel.\n\n"+
			"Price: %s %s\nDuration: %d days\n\n"+
			"Use /subscribe to purchase or /help for details.",
		name, h.subCfg.PriceAmount, h.subCfg.Currency, h.subCfg.DurationDays,
	)

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Subscribe", callbackSubscribe),
			tgbotapi.NewInlineKeyboardButtonData("Help", callbackHelp),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Subscription status", callbackStatus),
		),
	)
	h.send(reply)
}

func (h *Handlers) handleHelp(chatID int64) {
	text := "Commands:\n" +
		"/start - start the bot\n" +
		"/subscribe - purchase a subscription\n" +
		"/status - check your subscription\n" +
		"/help - show this help\n\n" +
		"After a successful payment the bot sends you an invite link to the channel. " +
		"If anything goes wrong, check /status first and then contact the administrator."
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) handleSubscribe(chatID, userID int64) {
	uid := fmt.Sprintf("%d", userID)
	if h.subscriptions.IsEntitled(uid) {
		sub := h.subscriptions.FindActive(uid)
		h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"You already have an active subscription until %s.",
			sub.EndAt.UTC().Format("2006-01-02"),
		)))
		return
	}

	text := fmt.Sprintf(
		"Subscription details:\n\nPrice: %s %s\nDuration: %d days\nAccess to the private channel\n\n"+
			"Press the button below to pay.",
		h.subCfg.PriceAmount, h.subCfg.Currency, h.subCfg.DurationDays,
	)

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Pay now", callbackCreatePayment),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel", callbackCancel),
		),
	)
	h.send(reply)
}

func (h *Handlers) handleStatus(chatID, userID int64) {
	uid := fmt.Sprintf("%d", userID)
	sub := h.subscriptions.FindActive(uid)
	if sub == nil {
		h.send(tgbotapi.NewMessage(chatID, "You have no subscription.\n\nUse /subscribe to purchase one."))
		return
	}

	state := "expired"
	note := "Purchase a new subscription with /subscribe."
	if h.subscriptions.IsEntitled(uid) {
		state = "active"
		note = "You have access to the private channel."
	}

	h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Subscription status: %s\nPeriod: %s - %s\nAmount: %s %s\nID: %s\n\n%s",
		state,
		sub.StartAt.UTC().Format("2006-01-02"),
		sub.EndAt.UTC().Format("2006-01-02"),
		sub.Amount, sub.Currency, sub.ID, note,
	)))
}

func (h *Handlers) handleAdmin(chatID, userID int64) {
	if !h.isAdmin(userID) {
		h.send(tgbotapi.NewMessage(chatID, "You are not an administrator."))
		return
	}

	stats := h.subscriptions.Stats()
	h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Subscription stats:\nTotal: %d\nActive: %d\nCancelled: %d",
		stats.Total, stats.Active, stats.Cancelled,
	)))
}

func (h *Handlers) createPayment(ctx context.Context, chatID, userID int64) {
	orderID := uuid.NewString()
	result, err := h.provider.CreatePayment(ctx, payment.CreatePaymentParams{
		UserID:      fmt.Sprintf("%d", userID),
		OrderID:     orderID,
		Amount:      h.subCfg.PriceAmount,
		Currency:    h.subCfg.Currency,
		Description: fmt.Sprintf("Private channel subscription (%d days)", h.subCfg.DurationDays),
	})
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Payment creation failed")
		h.send(tgbotapi.NewMessage(chatID, "Payment creation failed. Please try again later or contact the administrator."))
		return
	}

	h.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Payment created.\n\nPay here: %s\n\n"+
			"After a successful payment you will automatically receive a channel invite link.\n"+
			"Order ID: %s",
		result.PaymentURL, orderID,
	)))
}

func (h *Handlers) isAdmin(userID int64) bool {
	for _, id := range h.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.logger.WithError(err).Error("Send message failed")
	}
}

func (h *Handlers) answerCallback(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		h.logger.WithError(err).Error("Answer callback failed")
	}
}
