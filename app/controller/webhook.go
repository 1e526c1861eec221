package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
	"github.com/vibast-solutions/ms-go-paybot/app/service"
	"github.com/vibast-solutions/ms-go-paybot/app/signature"
	"github.com/vibast-solutions/ms-go-paybot/app/types"
)

type paymentProcessor interface {
	ProcessNotification(ctx context.Context, payload types.WebhookPayload) (*service.ProcessResult, error)
}

// WebhookController is the trust boundary for provider notifications: it
// authenticates the payload signature before anything else touches the body.
type WebhookController struct {
	signer         *signature.Signer
	paymentService paymentProcessor
	logger         logrus.FieldLogger
}

func NewWebhookController(signer *signature.Signer, paymentService paymentProcessor) *WebhookController {
	return &WebhookController{
		signer:         signer,
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("webhook-controller"),
	}
}

func (c *WebhookController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *WebhookController) PaymentNotification(ctx echo.Context) error {
	payload, err := types.NewWebhookPayloadFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	logger := factory.LoggerWithContext(c.logger, ctx)

	digest := ctx.Request().Header.Get(types.SignHeader)
	if !c.signer.Verify(payload, digest) {
		logger.WithField("order_id", payload.OrderID()).Warn("Webhook signature rejected")
		return c.writeError(ctx, http.StatusBadRequest, service.ErrInvalidSignature.Error())
	}

	result, err := c.paymentService.ProcessNotification(ctx.Request().Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotSuccessful):
			return c.writeError(ctx, http.StatusBadRequest, "payment not successful")
		case errors.Is(err, service.ErrMissingOrder), errors.Is(err, service.ErrMissingPrincipal):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			logger.WithError(err).Error("Payment notification failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	if result.AlreadyProcessed {
		return ctx.JSON(http.StatusOK, &types.WebhookResponse{Status: "ok", Message: "order already processed"})
	}
	return ctx.JSON(http.StatusOK, &types.WebhookResponse{Status: "ok"})
}

func (c *WebhookController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
