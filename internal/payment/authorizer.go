package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ms-billsplit/internal/errs"
)

// Authorizer is the external card-authorization step. It runs before any
// bill or item state changes, so a failure here leaves nothing to undo.
type Authorizer interface {
	Authorize(ctx context.Context, amount decimal.Decimal, method string) (string, error)
}

// SimulatedAuthorizer stands in for a card network: it waits Delay and
// then approves, bounded by Timeout. A context cancelled or timed out
// while waiting surfaces as ErrUnavailable.
type SimulatedAuthorizer struct {
	Delay   time.Duration
	Timeout time.Duration
}

func NewSimulatedAuthorizer(delay, timeout time.Duration) *SimulatedAuthorizer {
	return &SimulatedAuthorizer{Delay: delay, Timeout: timeout}
}

func (a *SimulatedAuthorizer) Authorize(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	if amount.Sign() <= 0 {
		return "", fmt.Errorf("authorization amount must be positive: %w", errs.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	timer := time.NewTimer(a.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return "sim_" + uuid.NewString(), nil
	case <-ctx.Done():
		return "", fmt.Errorf("payment authorization (%s): %v: %w", method, ctx.Err(), errs.ErrUnavailable)
	}
}
