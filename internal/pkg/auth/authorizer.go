package auth

import (
	"context"
	"errors"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// Authorizer decides whether presented reviewer credentials grant the right
// to run verification operations. The engine holds no session state; every
// call is checked against the store.
type Authorizer interface {
	Authorize(ctx context.Context, login, apiKey string) error
}

// RepositoryAuthorizer checks credentials against stored bcrypt hashes.
type RepositoryAuthorizer struct {
	reviewers repository.ReviewerRepository
	hasher    KeyHasher
}

// NewRepositoryAuthorizer constructs RepositoryAuthorizer.
func NewRepositoryAuthorizer(reviewers repository.ReviewerRepository, hasher KeyHasher) *RepositoryAuthorizer {
	return &RepositoryAuthorizer{reviewers: reviewers, hasher: hasher}
}

// Authorize returns ErrUnauthorized for unknown logins and mismatched keys
// alike, so callers cannot probe which reviewer accounts exist.
func (a *RepositoryAuthorizer) Authorize(ctx context.Context, login, apiKey string) error {
	if login == "" || apiKey == "" {
		return domainErrors.ErrUnauthorized
	}

	reviewer, err := a.reviewers.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return domainErrors.ErrUnauthorized
		}
		return err
	}

	if err := a.hasher.Compare(reviewer.APIKeyHash, apiKey); err != nil {
		return domainErrors.ErrUnauthorized
	}
	return nil
}

// Bootstrap ensures a reviewer account exists with the given key, hashing it
// fresh on every start.
func (a *RepositoryAuthorizer) Bootstrap(ctx context.Context, login, apiKey string) error {
	hash, err := a.hasher.Hash(apiKey)
	if err != nil {
		return err
	}
	return a.reviewers.Upsert(ctx, login, hash)
}
