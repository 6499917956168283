package dto

import (
	"time"

	"github.com/plan2d/fulfillment/internal/domain/model"
)

// CreateOrderRequest is the purchase intake payload.
type CreateOrderRequest struct {
	BuyerEmail    string `json:"buyer_email" binding:"required,email"`
	BuyerName     string `json:"buyer_name"`
	PlanRef       string `json:"plan_ref" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	ReceiptRef    string `json:"receipt_ref"`
}

// OrderResponse is the order as shown to buyers and reviewers. The access
// token is deliberately absent: the buyer receives it only inside the
// approval notification.
type OrderResponse struct {
	ID              int64      `json:"id"`
	Number          string     `json:"number"`
	Status          string     `json:"status"`
	BuyerEmail      string     `json:"buyer_email"`
	BuyerName       string     `json:"buyer_name,omitempty"`
	PlanRef         string     `json:"plan_ref"`
	PricePaid       string     `json:"price_paid"`
	Currency        string     `json:"currency"`
	PaymentMethod   string     `json:"payment_method"`
	ReceiptRef      string     `json:"receipt_ref,omitempty"`
	DownloadCount   int        `json:"download_count"`
	MaxDownloads    int        `json:"max_downloads"`
	AccessExpiresAt *time.Time `json:"access_expires_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	VerifiedBy      *string    `json:"verified_by,omitempty"`
	AdminComment    string     `json:"admin_comment,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ToOrderResponse maps the domain order onto the wire shape.
func ToOrderResponse(order *model.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID,
		Number:          order.Number,
		Status:          string(order.Status),
		BuyerEmail:      order.BuyerEmail,
		BuyerName:       order.BuyerName,
		PlanRef:         order.PlanRef,
		PricePaid:       order.PricePaid.StringFixed(2),
		Currency:        order.Currency,
		PaymentMethod:   string(order.PaymentMethod),
		ReceiptRef:      order.ReceiptRef,
		DownloadCount:   order.DownloadCount,
		MaxDownloads:    order.MaxDownloads,
		AccessExpiresAt: order.AccessExpiresAt,
		VerifiedAt:      order.VerifiedAt,
		VerifiedBy:      order.VerifiedBy,
		AdminComment:    order.AdminComment,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
