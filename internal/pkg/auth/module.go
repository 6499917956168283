package auth

import (
	"go.uber.org/fx"

	"github.com/plan2d/fulfillment/internal/domain/repository"
)

// Module provides reviewer authorization primitives via fx.
var Module = fx.Options(
	fx.Provide(newKeyHasher),
	fx.Provide(newAuthorizer),
	fx.Provide(func(a *RepositoryAuthorizer) Authorizer { return a }),
)

func newKeyHasher() KeyHasher {
	return NewBcryptHasher(0)
}

func newAuthorizer(reviewers repository.ReviewerRepository, hasher KeyHasher) *RepositoryAuthorizer {
	return NewRepositoryAuthorizer(reviewers, hasher)
}
