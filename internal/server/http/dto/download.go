package dto

import "time"

// DownloadResponse hands the buyer a time-boxed link to the deliverable.
type DownloadResponse struct {
	URL                string    `json:"url"`
	Filename           string    `json:"filename,omitempty"`
	ExpiresAt          time.Time `json:"expires_at"`
	DownloadsRemaining int       `json:"downloads_remaining"`
}

// DenialResponse carries a machine-readable download denial reason.
type DenialResponse struct {
	Reason string `json:"reason"`
}

// Denial reason codes as serialized to clients.
const (
	DenialNotCompleted     = "not_completed"
	DenialExpired          = "expired"
	DenialLimitExceeded    = "limit_exceeded"
	DenialAssetUnavailable = "asset_unavailable"
)
