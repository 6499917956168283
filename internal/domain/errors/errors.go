package errors

import "errors"

var (
	// ErrNotFound reports a missing order (or reviewer) row.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists reports a unique constraint collision. Order creation
	// reacts by reissuing the order number and access token.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition reports a state machine guard failure: the order
	// exists but is not in the state the transition requires.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthorized reports failed reviewer credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenNotFound means no order carries the presented access token.
	ErrTokenNotFound = errors.New("access token not found")
	// ErrNotCompleted denies a download because payment was never approved,
	// or approval was revoked by a refund.
	ErrNotCompleted = errors.New("order not completed")
	// ErrAccessExpired denies a download past access_expires_at.
	ErrAccessExpired = errors.New("download access expired")
	// ErrDownloadLimit denies a download once the quota is spent.
	ErrDownloadLimit = errors.New("download limit exceeded")
	// ErrAssetUnavailable denies a download when the catalog cannot resolve
	// the deliverable file. The quota increment is released.
	ErrAssetUnavailable = errors.New("asset unavailable")

	// ErrInvalidPaymentMethod rejects order creation with an unknown tag.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrCatalogUnavailable aborts order creation when no price snapshot can
	// be taken. No snapshot, no order.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)
