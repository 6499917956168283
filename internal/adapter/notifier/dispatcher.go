package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"
)

// EventKind labels a notification event.
type EventKind string

const (
	EventOrderCreated    EventKind = "order_created"
	EventPaymentApproved EventKind = "payment_approved"
	EventPaymentRejected EventKind = "payment_rejected"
	EventOrderRefunded   EventKind = "order_refunded"
)

// Envelope is the wire format handed to the external dispatcher. Delivery is
// at-least-once on the dispatcher's side; the engine never retries.
type Envelope struct {
	Kind        EventKind         `json:"kind"`
	OrderNumber string            `json:"order_number"`
	BuyerEmail  string            `json:"buyer_email"`
	BuyerName   string            `json:"buyer_name,omitempty"`
	PlanRef     string            `json:"plan_ref"`
	Payload     map[string]string `json:"payload,omitempty"`
}

// Dispatcher delivers notification envelopes.
type Dispatcher interface {
	Send(ctx context.Context, envelope Envelope) error
}

// HTTPDispatcher posts envelopes to the notification service.
type HTTPDispatcher struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPDispatcher creates dispatcher client with default timeout.
func NewHTTPDispatcher(baseURL string, logger *slog.Logger) (*HTTPDispatcher, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse notifier url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("notifier url must be absolute")
	}
	return &HTTPDispatcher{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Send posts one envelope. Any non-2xx answer is an error for the caller to
// log; the state transition that produced the event stands regardless.
func (d *HTTPDispatcher) Send(ctx context.Context, envelope Envelope) error {
	endpoint := *d.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/notifications")

	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	d.logger.Error("notifier request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(respBody)))
	return fmt.Errorf("notifier error: %s", resp.Status)
}

// NopDispatcher drops every envelope. Used when no dispatcher is configured.
type NopDispatcher struct{}

// Send implements Dispatcher.
func (NopDispatcher) Send(context.Context, Envelope) error { return nil }
