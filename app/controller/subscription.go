package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
	"github.com/vibast-solutions/ms-go-paybot/app/mapper"
	"github.com/vibast-solutions/ms-go-paybot/app/service"
	"github.com/vibast-solutions/ms-go-paybot/app/types"
)

// SubscriptionController serves the internal operator endpoints behind the
// API-key middleware.
type SubscriptionController struct {
	subscriptionService *service.SubscriptionService
	logger              logrus.FieldLogger
}

func NewSubscriptionController(subscriptionService *service.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
		logger:              factory.NewModuleLogger("subscriptions-controller"),
	}
}

func (c *SubscriptionController) GetSubscriptionStatus(ctx echo.Context) error {
	userID := ctx.Param("user_id")
	if userID == "" {
		return c.writeError(ctx, http.StatusBadRequest, "user_id is required")
	}

	return ctx.JSON(http.StatusOK, &types.SubscriptionStatusResponse{
		Entitled:     c.subscriptionService.IsEntitled(userID),
		Subscription: mapper.SubscriptionToResponse(c.subscriptionService.FindActive(userID)),
	})
}

func (c *SubscriptionController) ExtendSubscription(ctx echo.Context) error {
	userID := ctx.Param("user_id")
	if userID == "" {
		return c.writeError(ctx, http.StatusBadRequest, "user_id is required")
	}

	req := &types.ExtendSubscriptionRequest{}
	if err := ctx.Bind(req); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if req.Days <= 0 {
		return c.writeError(ctx, http.StatusBadRequest, "days must be positive")
	}

	item, err := c.subscriptionService.Extend(ctx.Request().Context(), userID, req.Days)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "subscription not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Extend subscription failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(item),
	})
}

func (c *SubscriptionController) CancelSubscription(ctx echo.Context) error {
	userID := ctx.Param("user_id")
	if userID == "" {
		return c.writeError(ctx, http.StatusBadRequest, "user_id is required")
	}

	item, err := c.subscriptionService.Cancel(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "subscription not found")
		}
		// The record is cancelled even when the revoke did not go through;
		// report the propagation failure to the operator.
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Cancel subscription failed")
		return c.writeError(ctx, http.StatusInternalServerError, "cancelled, entitlement revoke failed")
	}

	return ctx.JSON(http.StatusOK, &types.SubscriptionEnvelopeResponse{
		Subscription: mapper.SubscriptionToResponse(item),
	})
}

func (c *SubscriptionController) Stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, mapper.StatsToResponse(c.subscriptionService.Stats()))
}

func (c *SubscriptionController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
