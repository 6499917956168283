package dto

// ReviewRequest carries the reviewer comment for a single order decision.
type ReviewRequest struct {
	Comment string `json:"comment"`
}

// BulkReviewRequest applies one decision to a set of orders.
type BulkReviewRequest struct {
	OrderIDs []int64 `json:"order_ids" binding:"required,min=1"`
	Comment  string  `json:"comment"`
}

// ReviewResultResponse reports one order's outcome inside a bulk decision.
type ReviewResultResponse struct {
	OrderID int64          `json:"order_id"`
	OK      bool           `json:"ok"`
	Error   string         `json:"error,omitempty"`
	Order   *OrderResponse `json:"order,omitempty"`
}
