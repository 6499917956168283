package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the payment verification lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusCompleted,
	OrderStatusRejected,
	OrderStatusFailed,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range orderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts a raw string into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range orderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// PaymentMethod tags how the buyer claims to have paid. Informational only,
// it never influences the state machine.
type PaymentMethod string

const (
	PaymentMethodPayoneer     PaymentMethod = "payoneer"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodExternal     PaymentMethod = "external"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodPayoneer,
	PaymentMethodBankTransfer,
	PaymentMethodExternal,
}

// IsValid reports whether the payment method is recognized.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range paymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts a raw string into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range paymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

// SystemActor is recorded as verified_by when a transition is applied by the
// engine itself rather than a human reviewer.
const SystemActor = "system"

// Order describes one purchase attempt. Buyers have no accounts; an order is
// tracked by email and by its secret access token.
type Order struct {
	ID              int64
	Number          string
	BuyerEmail      string
	BuyerName       string
	PlanRef         string
	PricePaid       decimal.Decimal
	Currency        string
	PaymentMethod   PaymentMethod
	Status          OrderStatus
	ReceiptRef      string
	AccessToken     string
	DownloadCount   int
	MaxDownloads    int
	AccessExpiresAt *time.Time
	VerifiedAt      *time.Time
	VerifiedBy      *string
	AdminComment    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DownloadsRemaining returns how many successful downloads the order still admits.
func (o *Order) DownloadsRemaining() int {
	remaining := o.MaxDownloads - o.DownloadCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AccessExpired reports whether the download link has passed its optional
// expiration at the given instant.
func (o *Order) AccessExpired(now time.Time) bool {
	if o.AccessExpiresAt == nil {
		return false
	}
	return !now.Before(*o.AccessExpiresAt)
}

// Price is the catalog quotation snapshotted onto a new order.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// AssetGrant is a time-boxed reference to the deliverable file, resolved from
// the catalog after the download gate admits a request.
type AssetGrant struct {
	URL       string
	Filename  string
	ExpiresAt time.Time
}

// ReviewResult carries the outcome of one order inside a bulk review call.
// Each order transitions independently; there is no cross-order rollback.
type ReviewResult struct {
	OrderID int64
	Order   *Order
	Err     error
}
