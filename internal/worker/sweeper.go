package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
)

// FulfillmentFacade exposes the subset of application functionality required
// by the sweeper.
type FulfillmentFacade interface {
	StalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)
	FailExpired(ctx context.Context, orderID int64) (*model.Order, error)
}

// Sweeper periodically fails PENDING orders whose verification window has
// elapsed. It is advisory only: every transition goes through the same
// guarded update as a reviewer action, so racing a concurrent approve
// resolves to exactly one winner.
type Sweeper struct {
	facade     FulfillmentFacade
	pendingTTL time.Duration
	interval   time.Duration
	batchSize  int
	workers    int
	logger     *slog.Logger

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the sweep worker pool. A non-positive pendingTTL
// disables the sweep entirely.
func NewSweeper(facade FulfillmentFacade, pendingTTL, interval time.Duration, batchSize, workers int, logger *slog.Logger) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Sweeper{
		facade:     facade,
		pendingTTL: pendingTTL,
		interval:   interval,
		batchSize:  batchSize,
		workers:    workers,
		logger:     logger,
		jobs:       make(chan model.Order, batchSize*workers),
	}
}

// Enabled reports whether the sweep is configured to run.
func (s *Sweeper) Enabled() bool {
	return s.pendingTTL > 0
}

// Start launches background sweeping. No-op when disabled.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetchAndDispatch(ctx)
		}
	}
}

func (s *Sweeper) fetchAndDispatch(ctx context.Context) {
	cutoff := time.Now().Add(-s.pendingTTL)
	orders, err := s.facade.StalePendingOrders(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("fetch stale pending orders failed", slog.String("error", err.Error()))
		return
	}
	for _, order := range orders {
		select {
		case <-ctx.Done():
			return
		case s.jobs <- order:
		}
	}
}

func (s *Sweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-s.jobs:
			if !ok {
				return
			}
			s.handleOrder(ctx, order)
		}
	}
}

func (s *Sweeper) handleOrder(ctx context.Context, order model.Order) {
	if _, err := s.facade.FailExpired(ctx, order.ID); err != nil {
		// Lost the race to a reviewer, or the order was already swept.
		if errors.Is(err, domainErrors.ErrInvalidTransition) || errors.Is(err, domainErrors.ErrNotFound) {
			return
		}
		s.logger.Error("fail expired order failed", slog.String("order", order.Number), slog.String("error", err.Error()))
		return
	}
	s.logger.Info("stale pending order failed", slog.String("order", order.Number))
}
