package test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
)

// CatalogStub answers catalog lookups via function overrides.
type CatalogStub struct {
	PriceFn func(context.Context, string) (model.Price, error)
	AssetFn func(context.Context, string) (*model.AssetGrant, error)
}

// Price delegates to the override or returns a fixed price.
func (s CatalogStub) Price(ctx context.Context, planRef string) (model.Price, error) {
	if s.PriceFn != nil {
		return s.PriceFn(ctx, planRef)
	}
	return model.Price{Amount: decimal.NewFromInt(49), Currency: "USD"}, nil
}

// Asset delegates to the override or returns a fixed grant.
func (s CatalogStub) Asset(ctx context.Context, planRef string) (*model.AssetGrant, error) {
	if s.AssetFn != nil {
		return s.AssetFn(ctx, planRef)
	}
	return &model.AssetGrant{URL: "https://files.test/" + planRef, Filename: planRef + ".zip"}, nil
}

// NotifierRecorder counts notification dispatches per kind.
type NotifierRecorder struct {
	mu       sync.Mutex
	Created  []string
	Approved []string
	Rejected []string
	Refunded []string
	Reasons  []string
}

// OnCreated records an order creation notification.
func (n *NotifierRecorder) OnCreated(ctx context.Context, order *model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Created = append(n.Created, order.Number)
}

// OnApproved records a payment approval notification.
func (n *NotifierRecorder) OnApproved(ctx context.Context, order *model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Approved = append(n.Approved, order.Number)
}

// OnRejected records a payment rejection notification.
func (n *NotifierRecorder) OnRejected(ctx context.Context, order *model.Order, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Rejected = append(n.Rejected, order.Number)
	n.Reasons = append(n.Reasons, reason)
}

// OnRefunded records a refund notification.
func (n *NotifierRecorder) OnRefunded(ctx context.Context, order *model.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Refunded = append(n.Refunded, order.Number)
}

// ApprovedCount returns the number of recorded approval notifications.
func (n *NotifierRecorder) ApprovedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Approved)
}

// IssuerStub mints deterministic tokens and order numbers.
type IssuerStub struct {
	tokens   atomic.Int64
	numbers  atomic.Int64
	TokenFn  func() (string, error)
	NumberFn func(time.Time) string
}

// AccessToken returns a unique token or delegates to the override.
func (s *IssuerStub) AccessToken() (string, error) {
	if s.TokenFn != nil {
		return s.TokenFn()
	}
	return fmt.Sprintf("token-%d", s.tokens.Add(1)), nil
}

// OrderNumber returns a unique order number or delegates to the override.
func (s *IssuerStub) OrderNumber(now time.Time) string {
	if s.NumberFn != nil {
		return s.NumberFn(now)
	}
	return fmt.Sprintf("ORD-%s-%08d", now.UTC().Format("20060102"), s.numbers.Add(1))
}

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied key.
func (h HasherStub) Hash(key string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(key)
	}
	return "hash:" + key, nil
}

// Compare validates key against stored hash.
func (h HasherStub) Compare(hash string, key string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, key)
	}
	if hash != "hash:"+key {
		return domainErrors.ErrUnauthorized
	}
	return nil
}

// AuthorizerStub validates reviewer credentials via function override.
type AuthorizerStub struct {
	AuthorizeFn func(context.Context, string, string) error
}

// Authorize delegates to the override or accepts everything.
func (s AuthorizerStub) Authorize(ctx context.Context, login, apiKey string) error {
	if s.AuthorizeFn != nil {
		return s.AuthorizeFn(ctx, login, apiKey)
	}
	return nil
}
