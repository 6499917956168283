package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/server/http/dto"
)

// AdminHandler manages reviewer endpoints of the verification workflow.
type AdminHandler struct {
	facade ReviewFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade ReviewFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

type reviewOp func(c *gin.Context, orderID int64, reviewer, comment string) (*model.Order, error)

func (h *AdminHandler) review(c *gin.Context, op reviewOp) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req dto.ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	order, err := op(c, orderID, CurrentReviewer(c), req.Comment)
	if err != nil {
		writeReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func writeReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, domainErrors.ErrUnauthorized):
		c.Status(http.StatusUnauthorized)
	default:
		c.Status(http.StatusInternalServerError)
	}
}

// Approve handles POST /api/admin/orders/:id/approve.
func (h *AdminHandler) Approve(c *gin.Context) {
	h.review(c, func(c *gin.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
		return h.facade.Approve(c.Request.Context(), orderID, reviewer, comment)
	})
}

// Reject handles POST /api/admin/orders/:id/reject.
func (h *AdminHandler) Reject(c *gin.Context) {
	h.review(c, func(c *gin.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
		return h.facade.Reject(c.Request.Context(), orderID, reviewer, comment)
	})
}

// Refund handles POST /api/admin/orders/:id/refund.
func (h *AdminHandler) Refund(c *gin.Context) {
	h.review(c, func(c *gin.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
		return h.facade.Refund(c.Request.Context(), orderID, reviewer, comment)
	})
}

// ResetQuota handles POST /api/admin/orders/:id/quota/reset.
func (h *AdminHandler) ResetQuota(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.facade.ResetQuota(c.Request.Context(), orderID)
	if err != nil {
		writeReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

type bulkOp func(c *gin.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult

func (h *AdminHandler) bulkReview(c *gin.Context, op bulkOp) {
	var req dto.BulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := op(c, req.OrderIDs, CurrentReviewer(c), req.Comment)

	response := make([]dto.ReviewResultResponse, 0, len(results))
	for _, result := range results {
		item := dto.ReviewResultResponse{OrderID: result.OrderID, OK: result.Err == nil}
		if result.Err != nil {
			item.Error = result.Err.Error()
		}
		if result.Order != nil {
			order := dto.ToOrderResponse(result.Order)
			item.Order = &order
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, response)
}

// BulkApprove handles POST /api/admin/bulk/approve.
func (h *AdminHandler) BulkApprove(c *gin.Context) {
	h.bulkReview(c, func(c *gin.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
		return h.facade.BulkApprove(c.Request.Context(), orderIDs, reviewer, comment)
	})
}

// BulkReject handles POST /api/admin/bulk/reject.
func (h *AdminHandler) BulkReject(c *gin.Context) {
	h.bulkReview(c, func(c *gin.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
		return h.facade.BulkReject(c.Request.Context(), orderIDs, reviewer, comment)
	})
}

// List handles GET /api/admin/orders?status=&limit= (the review queue).
func (h *AdminHandler) List(c *gin.Context) {
	status, err := model.ParseOrderStatus(c.DefaultQuery("status", string(model.OrderStatusPending)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	orders, err := h.facade.OrdersByStatus(c.Request.Context(), status, limit)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, toOrderResponses(orders))
}
