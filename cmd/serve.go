package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-paybot/app/bot"
	"github.com/vibast-solutions/ms-go-paybot/app/controller"
	"github.com/vibast-solutions/ms-go-paybot/app/entitlement"
	"github.com/vibast-solutions/ms-go-paybot/app/payment"
	"github.com/vibast-solutions/ms-go-paybot/app/repository"
	"github.com/vibast-solutions/ms-go-paybot/app/service"
	"github.com/vibast-solutions/ms-go-paybot/app/signature"
	"github.com/vibast-solutions/ms-go-paybot/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server and the Telegram bot",
	Long:  "Start the HTTP server for payment webhooks and internal endpoints, plus the Telegram bot polling loop.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize Telegram bot")
	}

	store := repository.NewSubscriptionStore()

	var gateway entitlement.Gateway
	if cfg.Telegram.ChannelID != 0 {
		gateway = entitlement.NewTelegramGateway(botAPI, cfg.Telegram.ChannelID)
	} else {
		logrus.Warn("TELEGRAM_CHANNEL_ID not set, channel access is log-only")
		gateway = entitlement.NewLogGateway()
	}

	subscriptionService := service.NewSubscriptionService(store, gateway)
	paymentService := service.NewPaymentService(store, gateway, cfg.Subscriptions)

	var provider payment.Provider
	if cfg.Payment.APIKey != "" {
		provider = payment.NewProdamusProvider(cfg.Payment)
	} else {
		logrus.Warn("PAYMENT_API_KEY not set, using stub payment provider")
		provider = payment.NewStubProvider()
	}

	signer := signature.New(cfg.Payment.SecretKey, signature.Format{
		TrueToken:  cfg.Payment.SignTrueToken,
		FalseToken: cfg.Payment.SignFalseToken,
	})
	webhookController := controller.NewWebhookController(signer, paymentService)
	subscriptionController := controller.NewSubscriptionController(subscriptionService)

	e := setupHTTPServer(webhookController, subscriptionController, cfg.App.APIKey)

	botCtx, stopBot := context.WithCancel(context.Background())
	defer stopBot()

	handlers := bot.NewHandlers(botAPI, subscriptionService, provider, cfg.Subscriptions, cfg.Telegram.AdminIDs)
	go func() {
		if err := bot.New(botAPI, handlers).Run(botCtx); err != nil && err != context.Canceled {
			logrus.WithError(err).Error("Bot polling stopped")
		}
	}()

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	stopBot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	webhookController *controller.WebhookController,
	subscriptionController *controller.SubscriptionController,
	internalAPIKey string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string {
			return fmt.Sprintf("rest-%s", uuid.New().String())
		},
	}))

	e.GET("/health", webhookController.Health)

	webhooks := e.Group("/webhooks")
	webhooks.POST("/payment", webhookController.PaymentNotification)

	internal := e.Group("/internal", controller.APIKeyMiddleware(internalAPIKey))
	internal.GET("/subscriptions/stats", subscriptionController.Stats)
	internal.GET("/subscriptions/:user_id", subscriptionController.GetSubscriptionStatus)
	internal.POST("/subscriptions/:user_id/extend", subscriptionController.ExtendSubscription)
	internal.POST("/subscriptions/:user_id/cancel", subscriptionController.CancelSubscription)

	return e
}
