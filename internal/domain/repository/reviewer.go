package repository

import (
	"context"

	"github.com/plan2d/fulfillment/internal/domain/model"
)

// ReviewerRepository describes persistence operations for reviewer accounts.
type ReviewerRepository interface {
	Upsert(ctx context.Context, login, apiKeyHash string) error
	GetByLogin(ctx context.Context, login string) (*model.Reviewer, error)
}
