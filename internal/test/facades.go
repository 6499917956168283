package test

import (
	"context"
	"time"

	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/usecase"
)

// FulfillmentFacadeStub provides controllable behaviour for every handler
// endpoint through function overrides.
type FulfillmentFacadeStub struct {
	CreateOrderFn        func(context.Context, usecase.CreateInput) (*model.Order, error)
	OrderByNumberFn      func(context.Context, string) (*model.Order, error)
	OrdersByEmailFn      func(context.Context, string) ([]model.Order, error)
	OrdersByStatusFn     func(context.Context, model.OrderStatus, int) ([]model.Order, error)
	ApproveFn            func(context.Context, int64, string, string) (*model.Order, error)
	RejectFn             func(context.Context, int64, string, string) (*model.Order, error)
	RefundFn             func(context.Context, int64, string, string) (*model.Order, error)
	BulkApproveFn        func(context.Context, []int64, string, string) []model.ReviewResult
	BulkRejectFn         func(context.Context, []int64, string, string) []model.ReviewResult
	ResetQuotaFn         func(context.Context, int64) (*model.Order, error)
	AuthorizeDownloadFn  func(context.Context, string) (*usecase.Download, error)
	AuthorizeReviewerFn  func(context.Context, string, string) error
	StalePendingOrdersFn func(context.Context, time.Time, int) ([]model.Order, error)
	FailExpiredFn        func(context.Context, int64) (*model.Order, error)
}

// CreateOrder delegates to provided function or returns a default order.
func (s *FulfillmentFacadeStub) CreateOrder(ctx context.Context, in usecase.CreateInput) (*model.Order, error) {
	if s.CreateOrderFn != nil {
		return s.CreateOrderFn(ctx, in)
	}
	return &model.Order{ID: 1, Number: "ORD-20250101-00000001", BuyerEmail: in.BuyerEmail, PlanRef: in.PlanRef, Status: model.OrderStatusPending}, nil
}

// OrderByNumber delegates to provided function or returns a default order.
func (s *FulfillmentFacadeStub) OrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.OrderByNumberFn != nil {
		return s.OrderByNumberFn(ctx, number)
	}
	return &model.Order{ID: 1, Number: number, Status: model.OrderStatusPending}, nil
}

// OrdersByEmail delegates to provided function or returns an empty list.
func (s *FulfillmentFacadeStub) OrdersByEmail(ctx context.Context, email string) ([]model.Order, error) {
	if s.OrdersByEmailFn != nil {
		return s.OrdersByEmailFn(ctx, email)
	}
	return nil, nil
}

// OrdersByStatus delegates to provided function or returns an empty list.
func (s *FulfillmentFacadeStub) OrdersByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	if s.OrdersByStatusFn != nil {
		return s.OrdersByStatusFn(ctx, status, limit)
	}
	return nil, nil
}

// Approve delegates to provided function or returns a completed order.
func (s *FulfillmentFacadeStub) Approve(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	if s.ApproveFn != nil {
		return s.ApproveFn(ctx, orderID, reviewer, comment)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusCompleted}, nil
}

// Reject delegates to provided function or returns a rejected order.
func (s *FulfillmentFacadeStub) Reject(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	if s.RejectFn != nil {
		return s.RejectFn(ctx, orderID, reviewer, comment)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusRejected}, nil
}

// Refund delegates to provided function or returns a refunded order.
func (s *FulfillmentFacadeStub) Refund(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
	if s.RefundFn != nil {
		return s.RefundFn(ctx, orderID, reviewer, comment)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusRefunded}, nil
}

// BulkApprove delegates to provided function or reports per-order success.
func (s *FulfillmentFacadeStub) BulkApprove(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
	if s.BulkApproveFn != nil {
		return s.BulkApproveFn(ctx, orderIDs, reviewer, comment)
	}
	return defaultBulkResults(orderIDs, model.OrderStatusCompleted)
}

// BulkReject delegates to provided function or reports per-order success.
func (s *FulfillmentFacadeStub) BulkReject(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
	if s.BulkRejectFn != nil {
		return s.BulkRejectFn(ctx, orderIDs, reviewer, comment)
	}
	return defaultBulkResults(orderIDs, model.OrderStatusRejected)
}

// ResetQuota delegates to provided function or returns a zeroed order.
func (s *FulfillmentFacadeStub) ResetQuota(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.ResetQuotaFn != nil {
		return s.ResetQuotaFn(ctx, orderID)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusCompleted}, nil
}

// AuthorizeDownload delegates to provided function or grants the download.
func (s *FulfillmentFacadeStub) AuthorizeDownload(ctx context.Context, token string) (*usecase.Download, error) {
	if s.AuthorizeDownloadFn != nil {
		return s.AuthorizeDownloadFn(ctx, token)
	}
	return &usecase.Download{
		Asset: &model.AssetGrant{URL: "https://files.test/plan.zip", Filename: "plan.zip"},
		Order: &model.Order{ID: 1, Status: model.OrderStatusCompleted, DownloadCount: 1, MaxDownloads: 5},
	}, nil
}

// AuthorizeReviewer delegates to provided function or accepts credentials.
func (s *FulfillmentFacadeStub) AuthorizeReviewer(ctx context.Context, login, apiKey string) error {
	if s.AuthorizeReviewerFn != nil {
		return s.AuthorizeReviewerFn(ctx, login, apiKey)
	}
	return nil
}

// StalePendingOrders delegates to provided function or returns an empty list.
func (s *FulfillmentFacadeStub) StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	if s.StalePendingOrdersFn != nil {
		return s.StalePendingOrdersFn(ctx, cutoff, limit)
	}
	return nil, nil
}

// FailExpired delegates to provided function or returns a failed order.
func (s *FulfillmentFacadeStub) FailExpired(ctx context.Context, orderID int64) (*model.Order, error) {
	if s.FailExpiredFn != nil {
		return s.FailExpiredFn(ctx, orderID)
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusFailed}, nil
}

func defaultBulkResults(orderIDs []int64, status model.OrderStatus) []model.ReviewResult {
	results := make([]model.ReviewResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		results = append(results, model.ReviewResult{OrderID: id, Order: &model.Order{ID: id, Status: status}})
	}
	return results
}
