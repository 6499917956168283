package di

import (
	"go.uber.org/fx"

	"github.com/plan2d/fulfillment/internal/adapter/catalog"
	"github.com/plan2d/fulfillment/internal/adapter/notifier"
	"github.com/plan2d/fulfillment/internal/app"
	"github.com/plan2d/fulfillment/internal/config"
	"github.com/plan2d/fulfillment/internal/logger"
	"github.com/plan2d/fulfillment/internal/pkg/auth"
	"github.com/plan2d/fulfillment/internal/server/http/handlers"
	"github.com/plan2d/fulfillment/internal/server/http/router"
	"github.com/plan2d/fulfillment/internal/storage/postgres"
	"github.com/plan2d/fulfillment/internal/token"
	"github.com/plan2d/fulfillment/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		token.Module,
		postgres.Module,
		auth.Module,
		catalog.Module,
		notifier.Module,
		usecase.Module,
		fx.Provide(
			func(c catalog.Client) usecase.Catalog { return c },
			func(t *notifier.Trigger) usecase.Notifier { return t },
			func(i *token.Issuer) usecase.TokenIssuer { return i },
			func(f *app.FulfillmentFacade) handlers.FulfillmentFacade { return f },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
