package app

import (
	"context"
	"time"

	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/pkg/auth"
	"github.com/plan2d/fulfillment/internal/usecase"
)

// FulfillmentFacade aggregates the engine's operations behind one surface
// consumed by the HTTP handlers and the background sweeper.
type FulfillmentFacade struct {
	orders   *usecase.OrderUseCase
	review   *usecase.ReviewUseCase
	download *usecase.DownloadUseCase
	authz    auth.Authorizer
}

// NewFulfillmentFacade constructs FulfillmentFacade.
func NewFulfillmentFacade(orders *usecase.OrderUseCase, review *usecase.ReviewUseCase, download *usecase.DownloadUseCase, authz auth.Authorizer) *FulfillmentFacade {
	return &FulfillmentFacade{orders: orders, review: review, download: download, authz: authz}
}

func (f *FulfillmentFacade) CreateOrder(ctx context.Context, in usecase.CreateInput) (*model.Order, error) {
	return f.orders.Create(ctx, in)
}

func (f *FulfillmentFacade) OrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	return f.orders.ByNumber(ctx, number)
}

func (f *FulfillmentFacade) OrdersByEmail(ctx context.Context, email string) ([]model.Order, error) {
	return f.orders.ByEmail(ctx, email)
}

func (f *FulfillmentFacade) OrdersByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	return f.orders.ListByStatus(ctx, status, limit)
}

func (f *FulfillmentFacade) Approve(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	return f.review.Approve(ctx, orderID, reviewer, comment)
}

func (f *FulfillmentFacade) Reject(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	return f.review.Reject(ctx, orderID, reviewer, comment)
}

func (f *FulfillmentFacade) Refund(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	return f.review.Refund(ctx, orderID, reviewer, comment)
}

func (f *FulfillmentFacade) BulkApprove(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
	return f.review.BulkApprove(ctx, orderIDs, reviewer, comment)
}

func (f *FulfillmentFacade) BulkReject(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
	return f.review.BulkReject(ctx, orderIDs, reviewer, comment)
}

func (f *FulfillmentFacade) ResetQuota(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.download.ResetQuota(ctx, orderID)
}

func (f *FulfillmentFacade) AuthorizeDownload(ctx context.Context, token string) (*usecase.Download, error) {
	return f.download.Authorize(ctx, token)
}

func (f *FulfillmentFacade) AuthorizeReviewer(ctx context.Context, login, apiKey string) error {
	return f.authz.Authorize(ctx, login, apiKey)
}

func (f *FulfillmentFacade) StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	return f.orders.StalePending(ctx, cutoff, limit)
}

func (f *FulfillmentFacade) FailExpired(ctx context.Context, orderID int64) (*model.Order, error) {
	return f.review.FailExpired(ctx, orderID)
}
