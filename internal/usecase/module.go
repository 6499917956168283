package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/plan2d/fulfillment/internal/config"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	newOrderUseCase,
	newReviewUseCase,
	newDownloadUseCase,
)

type orderParams struct {
	fx.In

	Orders   repository.OrderRepository
	Catalog  Catalog
	Issuer   TokenIssuer
	Notifier Notifier
	Config   *config.Config
}

func newOrderUseCase(p orderParams) *OrderUseCase {
	return NewOrderUseCase(p.Orders, p.Catalog, p.Issuer, p.Notifier, p.Config.DefaultMaxDownloads)
}

type reviewParams struct {
	fx.In

	Orders   repository.OrderRepository
	Notifier Notifier
	Config   *config.Config
}

func newReviewUseCase(p reviewParams) *ReviewUseCase {
	return NewReviewUseCase(p.Orders, p.Notifier, p.Config.AccessTTL)
}

type downloadParams struct {
	fx.In

	Orders  repository.OrderRepository
	Catalog Catalog
	Logger  *slog.Logger
}

func newDownloadUseCase(p downloadParams) *DownloadUseCase {
	return NewDownloadUseCase(p.Orders, p.Catalog, p.Logger)
}
