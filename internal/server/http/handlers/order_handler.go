package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/server/http/dto"
	"github.com/plan2d/fulfillment/internal/usecase"
)

// OrderHandler manages buyer-facing order endpoints.
type OrderHandler struct {
	facade PurchaseFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade PurchaseFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), usecase.CreateInput{
		BuyerEmail:    req.BuyerEmail,
		BuyerName:     req.BuyerName,
		PlanRef:       req.PlanRef,
		PaymentMethod: req.PaymentMethod,
		ReceiptRef:    req.ReceiptRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidPaymentMethod):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, domainErrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		case errors.Is(err, domainErrors.ErrCatalogUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

// ByNumber handles GET /api/orders/:number.
func (h *OrderHandler) ByNumber(c *gin.Context) {
	order, err := h.facade.OrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// ListByEmail handles GET /api/orders?email=. Buyers have no accounts; this
// is the self-service lookup by contact address.
func (h *OrderHandler) ListByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}

	orders, err := h.facade.OrdersByEmail(c.Request.Context(), email)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, toOrderResponses(orders))
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	response := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		response = append(response, dto.ToOrderResponse(&orders[i]))
	}
	return response
}
