package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-paybot/app/entity"
	"github.com/vibast-solutions/ms-go-paybot/app/types"
)

func SubscriptionToResponse(item *entity.Subscription) *types.Subscription {
	if item == nil {
		return nil
	}

	return &types.Subscription{
		ID:        item.ID,
		UserID:    item.UserID,
		PaymentID: item.PaymentID,
		OrderID:   item.OrderID,
		Amount:    item.Amount,
		Currency:  item.Currency,
		Status:    statusLabel(item.Status),
		StartAt:   item.StartAt.UTC().Format(time.RFC3339),
		EndAt:     item.EndAt.UTC().Format(time.RFC3339),
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func StatsToResponse(stats entity.SubscriptionStats) *types.StatsResponse {
	return &types.StatsResponse{
		Total:     stats.Total,
		Active:    stats.Active,
		Cancelled: stats.Cancelled,
	}
}

func statusLabel(status int32) string {
	switch status {
	case entity.SubscriptionStatusActive:
		return "active"
	case entity.SubscriptionStatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
