package handlers

import (
	"context"
	"time"

	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/usecase"
)

// PurchaseFacade exposes buyer-facing order operations.
type PurchaseFacade interface {
	CreateOrder(ctx context.Context, in usecase.CreateInput) (*model.Order, error)
	OrderByNumber(ctx context.Context, number string) (*model.Order, error)
	OrdersByEmail(ctx context.Context, email string) ([]model.Order, error)
}

// ReviewFacade exposes the verification workflow to reviewers.
type ReviewFacade interface {
	Approve(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error)
	Reject(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error)
	Refund(ctx context.Context, orderID int64, reviewer, comment string) (*model.Order, error)
	BulkApprove(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult
	BulkReject(ctx context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult
	ResetQuota(ctx context.Context, orderID int64) (*model.Order, error)
	OrdersByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error)
	AuthorizeReviewer(ctx context.Context, login, apiKey string) error
}

// DownloadFacade exposes the download gate.
type DownloadFacade interface {
	AuthorizeDownload(ctx context.Context, token string) (*usecase.Download, error)
}

// FulfillmentFacade aggregates the full set of operations used across handlers.
type FulfillmentFacade interface {
	PurchaseFacade
	ReviewFacade
	DownloadFacade
	StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
	FailExpired(ctx context.Context, orderID int64) (*model.Order, error)
}
