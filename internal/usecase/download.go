package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// Download is a granted download: the resolved asset plus the order row as
// it looked right after the quota increment committed.
type Download struct {
	Asset *model.AssetGrant
	Order *model.Order
}

// DownloadUseCase is the download gate.
type DownloadUseCase struct {
	orders  repository.OrderRepository
	catalog Catalog
	logger  *slog.Logger
}

// NewDownloadUseCase constructs DownloadUseCase.
func NewDownloadUseCase(orders repository.OrderRepository, catalog Catalog, logger *slog.Logger) *DownloadUseCase {
	return &DownloadUseCase{orders: orders, catalog: catalog, logger: logger}
}

// Authorize admits or denies one download attempt for the presented token.
// The store performs the status/expiry/quota check and the counter increment
// atomically; only the asset resolution happens after the claim, and a
// failed resolution releases the claim since the buyer got no file.
func (u *DownloadUseCase) Authorize(ctx context.Context, token string) (*Download, error) {
	if token == "" {
		return nil, domainErrors.ErrTokenNotFound
	}

	order, err := u.orders.ClaimDownload(ctx, token)
	if err != nil {
		return nil, err
	}

	asset, err := u.catalog.Asset(ctx, order.PlanRef)
	if err != nil {
		u.logger.Warn("asset resolution failed, releasing claimed download",
			slog.String("order", order.Number),
			slog.String("plan_ref", order.PlanRef),
			slog.String("error", err.Error()),
		)
		if releaseErr := u.orders.ReleaseDownload(ctx, order.ID); releaseErr != nil {
			u.logger.Error("release of claimed download failed",
				slog.Int64("order_id", order.ID),
				slog.String("error", releaseErr.Error()),
			)
		}
		return nil, domainErrors.ErrAssetUnavailable
	}

	return &Download{Asset: asset, Order: order}, nil
}

// ResetQuota zeroes the download counter, the administrative escape hatch
// for buyers who legitimately ran out.
func (u *DownloadUseCase) ResetQuota(ctx context.Context, orderID int64) (*model.Order, error) {
	return u.orders.ResetQuota(ctx, orderID)
}
