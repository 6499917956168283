package notifier

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/plan2d/fulfillment/internal/domain/model"
)

// Trigger fires a notification after each order state transition. Every
// method is fire-and-forget: dispatcher failures are logged and swallowed so
// a committed transition is never reversed or retried here.
type Trigger struct {
	dispatcher Dispatcher
	baseURL    string
	logger     *slog.Logger
}

// NewTrigger constructs Trigger. baseURL is the public prefix for download
// links handed to approved buyers.
func NewTrigger(dispatcher Dispatcher, baseURL string, logger *slog.Logger) *Trigger {
	return &Trigger{
		dispatcher: dispatcher,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// DownloadLink builds the token-bearing URL delivered to the buyer.
func (t *Trigger) DownloadLink(order *model.Order) string {
	return t.baseURL + "/api/download/" + order.AccessToken
}

// OnCreated notifies that a new order awaits payment verification.
func (t *Trigger) OnCreated(ctx context.Context, order *model.Order) {
	t.send(ctx, order, Envelope{
		Kind: EventOrderCreated,
		Payload: map[string]string{
			"price_paid": order.PricePaid.StringFixed(2),
			"currency":   order.Currency,
		},
	})
}

// OnApproved notifies the buyer with the download link.
func (t *Trigger) OnApproved(ctx context.Context, order *model.Order) {
	payload := map[string]string{
		"download_link": t.DownloadLink(order),
		"max_downloads": strconv.Itoa(order.MaxDownloads),
	}
	if order.AccessExpiresAt != nil {
		payload["access_expires_at"] = order.AccessExpiresAt.Format("2006-01-02T15:04:05Z07:00")
	}
	t.send(ctx, order, Envelope{Kind: EventPaymentApproved, Payload: payload})
}

// OnRejected notifies the buyer with the rejection reason.
func (t *Trigger) OnRejected(ctx context.Context, order *model.Order, reason string) {
	t.send(ctx, order, Envelope{
		Kind:    EventPaymentRejected,
		Payload: map[string]string{"reason": reason},
	})
}

// OnRefunded notifies the buyer that access has been revoked.
func (t *Trigger) OnRefunded(ctx context.Context, order *model.Order) {
	t.send(ctx, order, Envelope{Kind: EventOrderRefunded})
}

func (t *Trigger) send(ctx context.Context, order *model.Order, envelope Envelope) {
	envelope.OrderNumber = order.Number
	envelope.BuyerEmail = order.BuyerEmail
	envelope.BuyerName = order.BuyerName
	envelope.PlanRef = order.PlanRef

	if err := t.dispatcher.Send(ctx, envelope); err != nil {
		t.logger.Error("notification dispatch failed",
			slog.String("kind", string(envelope.Kind)),
			slog.String("order", order.Number),
			slog.String("error", err.Error()),
		)
	}
}
