package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// createAttempts bounds reissuance retries after a unique constraint
// collision on the access token or order number.
const createAttempts = 5

// OrderUseCase encapsulates order intake and lookup logic.
type OrderUseCase struct {
	orders       repository.OrderRepository
	catalog      Catalog
	issuer       TokenIssuer
	notifier     Notifier
	maxDownloads int
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, catalog Catalog, issuer TokenIssuer, notifier Notifier, maxDownloads int) *OrderUseCase {
	if maxDownloads <= 0 {
		maxDownloads = 5
	}
	return &OrderUseCase{
		orders:       orders,
		catalog:      catalog,
		issuer:       issuer,
		notifier:     notifier,
		maxDownloads: maxDownloads,
	}
}

// CreateInput carries the purchase intake payload.
type CreateInput struct {
	BuyerEmail    string
	BuyerName     string
	PlanRef       string
	PaymentMethod string
	ReceiptRef    string
}

// Create records a purchase attempt in PENDING state. The price is
// snapshotted from the catalog once, here; it is never recomputed. A
// capability token is issued regardless of how verification later goes.
func (u *OrderUseCase) Create(ctx context.Context, in CreateInput) (*model.Order, error) {
	method, err := model.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, domainErrors.ErrInvalidPaymentMethod
	}

	price, err := u.catalog.Price(ctx, in.PlanRef)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrCatalogUnavailable, err)
	}

	var order *model.Order
	for attempt := 0; attempt < createAttempts; attempt++ {
		accessToken, err := u.issuer.AccessToken()
		if err != nil {
			return nil, err
		}

		order, err = u.orders.Create(ctx, repository.CreateOrderParams{
			Number:        u.issuer.OrderNumber(time.Now()),
			BuyerEmail:    in.BuyerEmail,
			BuyerName:     in.BuyerName,
			PlanRef:       in.PlanRef,
			PricePaid:     price.Amount,
			Currency:      price.Currency,
			PaymentMethod: method,
			ReceiptRef:    in.ReceiptRef,
			AccessToken:   accessToken,
			MaxDownloads:  u.maxDownloads,
		})
		if err == nil {
			break
		}
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			continue
		}
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order creation exhausted %d issuance attempts", createAttempts)
	}

	u.notifier.OnCreated(ctx, order)
	return order, nil
}

// ByNumber returns one order for the confirmation lookup.
func (u *OrderUseCase) ByNumber(ctx context.Context, number string) (*model.Order, error) {
	return u.orders.GetByNumber(ctx, number)
}

// ByEmail returns the buyer's orders, newest first.
func (u *OrderUseCase) ByEmail(ctx context.Context, email string) ([]model.Order, error) {
	return u.orders.ListByEmail(ctx, email)
}

// ListByStatus returns the review queue for a given lifecycle state.
func (u *OrderUseCase) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}
	if limit <= 0 {
		limit = 100
	}
	return u.orders.ListByStatus(ctx, status, limit)
}

// StalePending returns PENDING orders created before the cutoff for the
// advisory sweep.
func (u *OrderUseCase) StalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	return u.orders.SelectStalePending(ctx, cutoff, limit)
}
