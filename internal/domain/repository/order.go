package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plan2d/fulfillment/internal/domain/model"
)

// CreateOrderParams carries everything persisted for a new PENDING order.
// Price and currency are a snapshot taken before the call; the store never
// recomputes them.
type CreateOrderParams struct {
	Number        string
	BuyerEmail    string
	BuyerName     string
	PlanRef       string
	PricePaid     decimal.Decimal
	Currency      string
	PaymentMethod model.PaymentMethod
	ReceiptRef    string
	AccessToken   string
	MaxDownloads  int
}

// OrderRepository describes persistence operations with orders. Every
// mutation is a single conditional statement; the row is the only source of
// truth and no caller may cache its state across requests.
type OrderRepository interface {
	Create(ctx context.Context, params CreateOrderParams) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	GetByToken(ctx context.Context, token string) (*model.Order, error)
	ListByEmail(ctx context.Context, email string) ([]model.Order, error)
	ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error)

	// CloseFromPending atomically moves a PENDING order to COMPLETED,
	// REJECTED or FAILED, recording the verification audit fields. When the
	// target is COMPLETED a non-nil accessExpiresAt opens a bounded download
	// window. Returns ErrInvalidTransition if the order exists but already
	// left PENDING, ErrNotFound if it does not exist.
	CloseFromPending(ctx context.Context, id int64, to model.OrderStatus, reviewer, comment string, accessExpiresAt *time.Time) (*model.Order, error)

	// RefundCompleted atomically moves a COMPLETED order to REFUNDED,
	// appending the reviewer comment to the audit trail.
	RefundCompleted(ctx context.Context, id int64, reviewer, comment string) (*model.Order, error)

	// ClaimDownload performs the download gate in one guarded update keyed
	// by access token: status, expiration and quota are all part of the
	// condition and the counter increment commits with the check. On denial
	// it classifies the zero-row outcome into ErrTokenNotFound,
	// ErrNotCompleted, ErrAccessExpired or ErrDownloadLimit.
	ClaimDownload(ctx context.Context, token string) (*model.Order, error)

	// ReleaseDownload undoes one claimed download after the deliverable
	// could not be resolved. Never drops the counter below zero.
	ReleaseDownload(ctx context.Context, id int64) error

	// ResetQuota zeroes the download counter (administrative escape hatch).
	ResetQuota(ctx context.Context, id int64) (*model.Order, error)

	// SelectStalePending returns PENDING orders created before the cutoff,
	// oldest first, for the advisory expiration sweep.
	SelectStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
}
