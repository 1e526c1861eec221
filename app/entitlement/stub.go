package entitlement

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
)

// LogGateway only records grant/revoke calls. Used when no channel is
// configured, typically in local development.
type LogGateway struct {
	logger logrus.FieldLogger
}

func NewLogGateway() *LogGateway {
	return &LogGateway{logger: factory.NewModuleLogger("entitlement-log")}
}

func (g *LogGateway) Grant(_ context.Context, userID string) error {
	g.logger.WithField("user_id", userID).Info("Grant requested (no channel configured)")
	return nil
}

func (g *LogGateway) Revoke(_ context.Context, userID string) error {
	g.logger.WithField("user_id", userID).Info("Revoke requested (no channel configured)")
	return nil
}
