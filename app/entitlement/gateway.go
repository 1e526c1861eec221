// Package entitlement grants and revokes access to the gated channel. The
// subscription core only depends on the Gateway interface; propagation
// failures are reported to the caller and never unwind store state.
package entitlement

import (
	"context"
	"errors"
)

var ErrGateway = errors.New("entitlement gateway error")

type Gateway interface {
	Grant(ctx context.Context, userID string) error
	Revoke(ctx context.Context, userID string) error
}
