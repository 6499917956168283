package test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// OrderRepositoryStub keeps orders in-memory and mirrors the conditional
// semantics of the real store: every mutation re-checks the guard under the
// lock, which makes the stub safe for concurrent test callers.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	Orders map[int64]*model.Order
	Next   int64
	Err    error
	Now    func() time.Time
}

// NewOrderRepositoryStub constructs stub repository with initialized state.
func NewOrderRepositoryStub() *OrderRepositoryStub {
	return &OrderRepositoryStub{
		Orders: make(map[int64]*model.Order),
		Next:   1,
		Now:    time.Now,
	}
}

// Seed inserts an order directly, assigning an ID when missing.
func (s *OrderRepositoryStub) Seed(order model.Order) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID == 0 {
		order.ID = s.Next
		s.Next++
	} else if order.ID >= s.Next {
		s.Next = order.ID + 1
	}
	stored := order
	s.Orders[stored.ID] = &stored
	return &stored
}

// Get returns a copy of the stored order for assertions.
func (s *OrderRepositoryStub) Get(id int64) *model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.Orders[id]; ok {
		clone := *order
		return &clone
	}
	return nil
}

// Create registers a PENDING order unless token or number collide.
func (s *OrderRepositoryStub) Create(ctx context.Context, params repository.CreateOrderParams) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Orders {
		if existing.AccessToken == params.AccessToken || existing.Number == params.Number {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	now := s.now()
	order := &model.Order{
		ID:            s.Next,
		Number:        params.Number,
		BuyerEmail:    params.BuyerEmail,
		BuyerName:     params.BuyerName,
		PlanRef:       params.PlanRef,
		PricePaid:     params.PricePaid,
		Currency:      params.Currency,
		PaymentMethod: params.PaymentMethod,
		Status:        model.OrderStatusPending,
		ReceiptRef:    params.ReceiptRef,
		AccessToken:   params.AccessToken,
		MaxDownloads:  params.MaxDownloads,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.Next++
	s.Orders[order.ID] = order
	clone := *order
	return &clone, nil
}

// GetByID fetches order by identifier or returns not found.
func (s *OrderRepositoryStub) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.Orders[id]; ok {
		clone := *order
		return &clone, nil
	}
	return nil, domainErrors.ErrNotFound
}

// GetByNumber fetches order by public number.
func (s *OrderRepositoryStub) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.Orders {
		if order.Number == number {
			clone := *order
			return &clone, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

// GetByToken fetches order by access token.
func (s *OrderRepositoryStub) GetByToken(ctx context.Context, token string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.Orders {
		if order.AccessToken == token {
			clone := *order
			return &clone, nil
		}
	}
	return nil, domainErrors.ErrTokenNotFound
}

// ListByEmail returns orders for the given buyer, newest first.
func (s *OrderRepositoryStub) ListByEmail(ctx context.Context, email string) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, order := range s.Orders {
		if order.BuyerEmail == email {
			result = append(result, *order)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// ListByStatus returns up to limit orders in the given state, oldest first.
func (s *OrderRepositoryStub) ListByStatus(ctx context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, order := range s.Orders {
		if order.Status == status {
			result = append(result, *order)
		}
	}
	sortOldestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CloseFromPending applies the guarded PENDING transition under the lock.
func (s *OrderRepositoryStub) CloseFromPending(ctx context.Context, id int64, to model.OrderStatus, reviewer, comment string, accessExpiresAt *time.Time) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if order.Status != model.OrderStatusPending {
		return nil, domainErrors.ErrInvalidTransition
	}
	now := s.now()
	order.Status = to
	order.VerifiedAt = &now
	order.VerifiedBy = &reviewer
	order.AdminComment = comment
	order.AccessExpiresAt = accessExpiresAt
	order.UpdatedAt = now
	clone := *order
	return &clone, nil
}

// RefundCompleted applies the guarded COMPLETED to REFUNDED transition.
func (s *OrderRepositoryStub) RefundCompleted(ctx context.Context, id int64, reviewer, comment string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, domainErrors.ErrInvalidTransition
	}
	annotation := fmt.Sprintf("refunded by %s: %s", reviewer, comment)
	if order.AdminComment != "" {
		order.AdminComment += "\n" + annotation
	} else {
		order.AdminComment = annotation
	}
	order.Status = model.OrderStatusRefunded
	order.UpdatedAt = s.now()
	clone := *order
	return &clone, nil
}

// ClaimDownload checks status, expiry and quota and increments the counter
// as one critical section, matching the single-statement store behaviour.
func (s *OrderRepositoryStub) ClaimDownload(ctx context.Context, token string) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var order *model.Order
	for _, candidate := range s.Orders {
		if candidate.AccessToken == token {
			order = candidate
			break
		}
	}
	if order == nil {
		return nil, domainErrors.ErrTokenNotFound
	}
	if order.Status != model.OrderStatusCompleted {
		return nil, domainErrors.ErrNotCompleted
	}
	if order.AccessExpired(s.now()) {
		return nil, domainErrors.ErrAccessExpired
	}
	if order.DownloadCount >= order.MaxDownloads {
		return nil, domainErrors.ErrDownloadLimit
	}
	order.DownloadCount++
	order.UpdatedAt = s.now()
	clone := *order
	return &clone, nil
}

// ReleaseDownload undoes one claimed download without going below zero.
func (s *OrderRepositoryStub) ReleaseDownload(ctx context.Context, id int64) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return domainErrors.ErrNotFound
	}
	if order.DownloadCount > 0 {
		order.DownloadCount--
		order.UpdatedAt = s.now()
	}
	return nil
}

// ResetQuota zeroes the download counter.
func (s *OrderRepositoryStub) ResetQuota(ctx context.Context, id int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.Orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	order.DownloadCount = 0
	order.UpdatedAt = s.now()
	clone := *order
	return &clone, nil
}

// SelectStalePending returns PENDING orders created before the cutoff.
func (s *OrderRepositoryStub) SelectStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Order
	for _, order := range s.Orders {
		if order.Status == model.OrderStatusPending && order.CreatedAt.Before(cutoff) {
			result = append(result, *order)
		}
	}
	sortOldestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *OrderRepositoryStub) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func sortNewestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func sortOldestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// ReviewerRepositoryStub stores reviewer accounts in-memory.
type ReviewerRepositoryStub struct {
	mu        sync.Mutex
	Reviewers map[string]*model.Reviewer
	Err       error
}

// NewReviewerRepositoryStub constructs stub repository with initialized maps.
func NewReviewerRepositoryStub() *ReviewerRepositoryStub {
	return &ReviewerRepositoryStub{Reviewers: make(map[string]*model.Reviewer)}
}

// Upsert creates or replaces the reviewer credentials.
func (s *ReviewerRepositoryStub) Upsert(ctx context.Context, login, apiKeyHash string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Reviewers == nil {
		s.Reviewers = make(map[string]*model.Reviewer)
	}
	s.Reviewers[login] = &model.Reviewer{Login: login, APIKeyHash: apiKeyHash, CreatedAt: time.Now()}
	return nil
}

// GetByLogin fetches reviewer by login or returns not found.
func (s *ReviewerRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.Reviewer, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if reviewer, ok := s.Reviewers[login]; ok {
		clone := *reviewer
		return &clone, nil
	}
	return nil, domainErrors.ErrNotFound
}
