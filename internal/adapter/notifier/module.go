package notifier

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/plan2d/fulfillment/internal/config"
)

// Module exposes the notification dispatcher and trigger to fx graph.
var Module = fx.Options(
	fx.Provide(newDispatcher),
	fx.Provide(newTrigger),
)

type dispatcherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newDispatcher(p dispatcherParams) (Dispatcher, error) {
	if p.Config.NotifierAddress == "" {
		p.Logger.Warn("no notifier address configured, notifications disabled")
		return NopDispatcher{}, nil
	}
	return NewHTTPDispatcher(p.Config.NotifierAddress, p.Logger)
}

type triggerParams struct {
	fx.In

	Dispatcher Dispatcher
	Config     *config.Config
	Logger     *slog.Logger
}

func newTrigger(p triggerParams) *Trigger {
	return NewTrigger(p.Dispatcher, p.Config.PublicBaseURL, p.Logger)
}
