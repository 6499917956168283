package model

import "time"

// Reviewer is an operator allowed to verify payments. The API key is stored
// only as a bcrypt hash.
type Reviewer struct {
	Login      string
	APIKeyHash string
	CreatedAt  time.Time
}
