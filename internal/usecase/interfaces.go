package usecase

import (
	"context"
	"time"

	"github.com/plan2d/fulfillment/internal/domain/model"
)

// Catalog is the slice of the plan catalog collaborator the engine consumes.
type Catalog interface {
	Price(ctx context.Context, planRef string) (model.Price, error)
	Asset(ctx context.Context, planRef string) (*model.AssetGrant, error)
}

// Notifier fires after-transition notifications. Implementations never
// return errors to the caller; delivery is best-effort.
type Notifier interface {
	OnCreated(ctx context.Context, order *model.Order)
	OnApproved(ctx context.Context, order *model.Order)
	OnRejected(ctx context.Context, order *model.Order, reason string)
	OnRefunded(ctx context.Context, order *model.Order)
}

// TokenIssuer mints capability tokens and order numbers.
type TokenIssuer interface {
	AccessToken() (string, error)
	OrderNumber(now time.Time) string
}
