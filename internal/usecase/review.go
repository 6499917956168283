package usecase

import (
	"context"
	"time"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// failComment is recorded when the engine itself fails a stale order.
const failComment = "payment verification window elapsed"

// ReviewUseCase drives the verification workflow. Each transition is a
// single guarded update in the store; this layer adds the audit actor, the
// access window, and the exactly-once notification that follows success.
//
// A REJECTED order is final here: resubmitting a corrected receipt means
// creating a brand-new order, there is no reopen path back to PENDING.
type ReviewUseCase struct {
	orders    repository.OrderRepository
	notifier  Notifier
	accessTTL time.Duration
}

// NewReviewUseCase constructs ReviewUseCase. accessTTL of zero means
// approved orders never expire.
func NewReviewUseCase(orders repository.OrderRepository, notifier Notifier, accessTTL time.Duration) *ReviewUseCase {
	return &ReviewUseCase{orders: orders, notifier: notifier, accessTTL: accessTTL}
}

// Approve moves a PENDING order to COMPLETED, opening the download window.
func (u *ReviewUseCase) Approve(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	if reviewer == "" {
		return nil, domainErrors.ErrUnauthorized
	}

	var expiresAt *time.Time
	if u.accessTTL > 0 {
		e := time.Now().Add(u.accessTTL)
		expiresAt = &e
	}

	order, err := u.orders.CloseFromPending(ctx, orderID, model.OrderStatusCompleted, reviewer, comment, expiresAt)
	if err != nil {
		return nil, err
	}

	u.notifier.OnApproved(ctx, order)
	return order, nil
}

// Reject moves a PENDING order to REJECTED.
func (u *ReviewUseCase) Reject(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	if reviewer == "" {
		return nil, domainErrors.ErrUnauthorized
	}

	order, err := u.orders.CloseFromPending(ctx, orderID, model.OrderStatusRejected, reviewer, comment, nil)
	if err != nil {
		return nil, err
	}

	u.notifier.OnRejected(ctx, order, comment)
	return order, nil
}

// Refund moves a COMPLETED order to REFUNDED; downloads are denied from then
// on even if quota remains.
func (u *ReviewUseCase) Refund(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	if reviewer == "" {
		return nil, domainErrors.ErrUnauthorized
	}

	order, err := u.orders.RefundCompleted(ctx, orderID, reviewer, comment)
	if err != nil {
		return nil, err
	}

	u.notifier.OnRefunded(ctx, order)
	return order, nil
}

// FailExpired applies the system-actor PENDING to FAILED transition used by
// the expiration sweep. Losing the race against a concurrent review is not
// an error worth surfacing.
func (u *ReviewUseCase) FailExpired(ctx context.Context, orderID int64) (*model.Order, error) {
	return u.orders.CloseFromPending(ctx, orderID, model.OrderStatusFailed, model.SystemActor, failComment, nil)
}

// BulkApprove applies Approve to each order independently. One order's guard
// failure never rolls back the others.
func (u *ReviewUseCase) BulkApprove(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
	return u.bulk(ctx, orderIDs, func(id int64) (*model.Order, error) {
		return u.Approve(ctx, id, reviewer, comment)
	})
}

// BulkReject applies Reject to each order independently.
func (u *ReviewUseCase) BulkReject(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
	return u.bulk(ctx, orderIDs, func(id int64) (*model.Order, error) {
		return u.Reject(ctx, id, reviewer, comment)
	})
}

func (u *ReviewUseCase) bulk(ctx context.Context, orderIDs []int64, apply func(int64) (*model.Order, error)) []model.ReviewResult {
	results := make([]model.ReviewResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		order, err := apply(id)
		results = append(results, model.ReviewResult{OrderID: id, Order: order, Err: err})
	}
	return results
}
