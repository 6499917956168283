package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
	"github.com/plan2d/fulfillment/internal/server/http/dto"
	"github.com/plan2d/fulfillment/internal/server/http/middleware"
	testhelpers "github.com/plan2d/fulfillment/internal/test"
	"github.com/plan2d/fulfillment/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, path string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	route := path
	if i := strings.Index(route, "?"); i >= 0 {
		route = route[:i]
	}
	return performRouteRequest(t, method, route, path, handler, setup, body, headers)
}

// performRouteRequest registers the handler under a parameterized route and
// issues the request against a concrete path.
func performRouteRequest(t *testing.T, method, route, path string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func asReviewer(login string) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.ReviewerContextKey, login)
	}
}

func TestCurrentReviewer(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := CurrentReviewer(c); got != "" {
		t.Fatalf("expected empty login when not set, got %q", got)
	}

	c.Set(middleware.ReviewerContextKey, "alice")
	if got := CurrentReviewer(c); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	body, _ := json.Marshal(dto.CreateOrderRequest{
		BuyerEmail:    "buyer@example.com",
		BuyerName:     "Ana",
		PlanRef:       "plan-21",
		PaymentMethod: "payoneer",
		ReceiptRef:    "receipt-77",
	})
	facade := &testhelpers.FulfillmentFacadeStub{CreateOrderFn: func(_ context.Context, in usecase.CreateInput) (*model.Order, error) {
		if in.BuyerEmail != "buyer@example.com" || in.PlanRef != "plan-21" || in.ReceiptRef != "receipt-77" {
			t.Fatalf("unexpected input %+v", in)
		}
		return &model.Order{
			ID:            1,
			Number:        "ORD-20250101-AAAAAAAA",
			BuyerEmail:    in.BuyerEmail,
			PlanRef:       in.PlanRef,
			PricePaid:     decimal.RequireFromString("149.90"),
			Currency:      "EUR",
			PaymentMethod: model.PaymentMethodPayoneer,
			Status:        model.OrderStatusPending,
			AccessToken:   "secret-token",
			MaxDownloads:  5,
		}, nil
	}}

	resp := performRequest(t, http.MethodPost, "/orders", NewOrderHandler(facade).Create, nil, body, jsonHeaders())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}

	var payload dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Number != "ORD-20250101-AAAAAAAA" || payload.Status != "PENDING" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.PricePaid != "149.90" {
		t.Fatalf("unexpected price %q", payload.PricePaid)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("secret-token")) {
		t.Fatal("access token must never appear in order responses")
	}
}

func TestOrderHandlerCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"plan_ref":"plan-1","payment_method":"payoneer"}`},
		{"bad email", `{"buyer_email":"not-an-email","plan_ref":"plan-1","payment_method":"payoneer"}`},
		{"missing plan", `{"buyer_email":"a@b.com","payment_method":"payoneer"}`},
		{"not json", `plan please`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.FulfillmentFacadeStub{CreateOrderFn: func(context.Context, usecase.CreateInput) (*model.Order, error) {
				t.Fatal("facade should not be called for invalid payload")
				return nil, nil
			}}
			resp := performRequest(t, http.MethodPost, "/orders", NewOrderHandler(facade).Create, nil, []byte(tc.body), jsonHeaders())
			if resp.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d", resp.Code)
			}
		})
	}
}

func TestOrderHandlerCreateErrors(t *testing.T) {
	body := []byte(`{"buyer_email":"a@b.com","plan_ref":"plan-1","payment_method":"paypal"}`)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid payment method", domainErrors.ErrInvalidPaymentMethod, http.StatusUnprocessableEntity},
		{"unknown plan", domainErrors.ErrNotFound, http.StatusNotFound},
		{"catalog down", domainErrors.ErrCatalogUnavailable, http.StatusBadGateway},
		{"storage failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.FulfillmentFacadeStub{CreateOrderFn: func(context.Context, usecase.CreateInput) (*model.Order, error) {
				return nil, tc.err
			}}
			resp := performRequest(t, http.MethodPost, "/orders", NewOrderHandler(facade).Create, nil, body, jsonHeaders())
			if resp.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

func TestOrderHandlerByNumber(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{OrderByNumberFn: func(_ context.Context, number string) (*model.Order, error) {
		if number != "ORD-20250101-AAAAAAAA" {
			t.Fatalf("unexpected number %q", number)
		}
		return &model.Order{ID: 1, Number: number, Status: model.OrderStatusCompleted}, nil
	}}

	resp := performRouteRequest(t, http.MethodGet, "/orders/:number", "/orders/ORD-20250101-AAAAAAAA", NewOrderHandler(facade).ByNumber, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestOrderHandlerByNumberNotFound(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{OrderByNumberFn: func(context.Context, string) (*model.Order, error) {
		return nil, domainErrors.ErrNotFound
	}}

	resp := performRouteRequest(t, http.MethodGet, "/orders/:number", "/orders/ORD-MISSING", NewOrderHandler(facade).ByNumber, nil, nil, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestOrderHandlerListByEmail(t *testing.T) {
	handler := NewOrderHandler(&testhelpers.FulfillmentFacadeStub{OrdersByEmailFn: func(_ context.Context, email string) ([]model.Order, error) {
		if email != "buyer@example.com" {
			t.Fatalf("unexpected email %q", email)
		}
		return []model.Order{{ID: 1, Number: "ORD-1", Status: model.OrderStatusPending}}, nil
	}})

	resp := performRequest(t, http.MethodGet, "/orders?email=buyer@example.com", handler.ListByEmail, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload []dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 1 || payload[0].Number != "ORD-1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestOrderHandlerListByEmailEdgeCases(t *testing.T) {
	t.Run("missing email", func(t *testing.T) {
		handler := NewOrderHandler(&testhelpers.FulfillmentFacadeStub{})
		resp := performRequest(t, http.MethodGet, "/orders", handler.ListByEmail, nil, nil, nil)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", resp.Code)
		}
	})

	t.Run("no orders", func(t *testing.T) {
		handler := NewOrderHandler(&testhelpers.FulfillmentFacadeStub{OrdersByEmailFn: func(context.Context, string) ([]model.Order, error) {
			return nil, nil
		}})
		resp := performRequest(t, http.MethodGet, "/orders?email=a@b.com", handler.ListByEmail, nil, nil, nil)
		if resp.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", resp.Code)
		}
	})
}

func TestDownloadHandlerSuccess(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	facade := &testhelpers.FulfillmentFacadeStub{AuthorizeDownloadFn: func(_ context.Context, token string) (*usecase.Download, error) {
		if token != "tok-1" {
			t.Fatalf("unexpected token %q", token)
		}
		return &usecase.Download{
			Asset: &model.AssetGrant{URL: "https://files.test/signed", Filename: "plan.zip", ExpiresAt: expires},
			Order: &model.Order{Status: model.OrderStatusCompleted, DownloadCount: 2, MaxDownloads: 5},
		}, nil
	}}

	resp := performRouteRequest(t, http.MethodGet, "/download/:token", "/download/tok-1", NewDownloadHandler(facade).Download, nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload dto.DownloadResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.URL != "https://files.test/signed" || payload.Filename != "plan.zip" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.DownloadsRemaining != 3 {
		t.Fatalf("expected 3 downloads remaining, got %d", payload.DownloadsRemaining)
	}
}

func TestDownloadHandlerDenials(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   int
		reason string
	}{
		{"unknown token", domainErrors.ErrTokenNotFound, http.StatusNotFound, ""},
		{"not completed", domainErrors.ErrNotCompleted, http.StatusForbidden, dto.DenialNotCompleted},
		{"expired", domainErrors.ErrAccessExpired, http.StatusForbidden, dto.DenialExpired},
		{"limit exceeded", domainErrors.ErrDownloadLimit, http.StatusForbidden, dto.DenialLimitExceeded},
		{"asset unavailable", domainErrors.ErrAssetUnavailable, http.StatusForbidden, dto.DenialAssetUnavailable},
		{"storage failure", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.FulfillmentFacadeStub{AuthorizeDownloadFn: func(context.Context, string) (*usecase.Download, error) {
				return nil, tc.err
			}}
			resp := performRouteRequest(t, http.MethodGet, "/download/:token", "/download/tok-1", NewDownloadHandler(facade).Download, nil, nil, nil)
			if resp.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, resp.Code)
			}
			if tc.reason != "" {
				var payload dto.DenialResponse
				if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if payload.Reason != tc.reason {
					t.Fatalf("expected reason %q, got %q", tc.reason, payload.Reason)
				}
			}
		})
	}
}

func TestAdminHandlerApprove(t *testing.T) {
	body := []byte(`{"comment":"receipt checks out"}`)
	facade := &testhelpers.FulfillmentFacadeStub{ApproveFn: func(_ context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
		if orderID != 7 || reviewer != "alice" || comment != "receipt checks out" {
			t.Fatalf("unexpected arguments: %d %q %q", orderID, reviewer, comment)
		}
		return &model.Order{ID: orderID, Status: model.OrderStatusCompleted}, nil
	}}

	resp := performRouteRequest(t, http.MethodPost, "/orders/:id/approve", "/orders/7/approve", NewAdminHandler(facade).Approve, asReviewer("alice"), body, jsonHeaders())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "COMPLETED" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
}

func TestAdminHandlerApproveWithoutBody(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{ApproveFn: func(_ context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
		if comment != "" {
			t.Fatalf("expected empty comment, got %q", comment)
		}
		return &model.Order{ID: orderID, Status: model.OrderStatusCompleted}, nil
	}}

	resp := performRouteRequest(t, http.MethodPost, "/orders/:id/approve", "/orders/7/approve", NewAdminHandler(facade).Approve, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestAdminHandlerReviewErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"missing order", domainErrors.ErrNotFound, http.StatusNotFound},
		{"already decided", domainErrors.ErrInvalidTransition, http.StatusConflict},
		{"unauthorized", domainErrors.ErrUnauthorized, http.StatusUnauthorized},
		{"storage failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facade := &testhelpers.FulfillmentFacadeStub{RejectFn: func(context.Context, int64, string, string) (*model.Order, error) {
				return nil, tc.err
			}}
			resp := performRouteRequest(t, http.MethodPost, "/orders/:id/reject", "/orders/7/reject", NewAdminHandler(facade).Reject, asReviewer("alice"), nil, nil)
			if resp.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, resp.Code)
			}
		})
	}
}

func TestAdminHandlerInvalidOrderID(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{}
	resp := performRouteRequest(t, http.MethodPost, "/orders/:id/approve", "/orders/not-a-number/approve", NewAdminHandler(facade).Approve, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAdminHandlerRefund(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{RefundFn: func(_ context.Context, orderID int64, reviewer, comment string) (*model.Order, error) {
		if reviewer != "alice" || comment != "buyer request" {
			t.Fatalf("unexpected arguments: %q %q", reviewer, comment)
		}
		return &model.Order{ID: orderID, Status: model.OrderStatusRefunded}, nil
	}}

	resp := performRouteRequest(t, http.MethodPost, "/orders/:id/refund", "/orders/7/refund", NewAdminHandler(facade).Refund, asReviewer("alice"), []byte(`{"comment":"buyer request"}`), jsonHeaders())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestAdminHandlerResetQuota(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{ResetQuotaFn: func(_ context.Context, orderID int64) (*model.Order, error) {
		if orderID != 7 {
			t.Fatalf("unexpected order id %d", orderID)
		}
		return &model.Order{ID: orderID, Status: model.OrderStatusCompleted, DownloadCount: 0, MaxDownloads: 5}, nil
	}}

	resp := performRouteRequest(t, http.MethodPost, "/orders/:id/quota/reset", "/orders/7/quota/reset", NewAdminHandler(facade).ResetQuota, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestAdminHandlerBulkApprove(t *testing.T) {
	body := []byte(`{"order_ids":[1,2,3],"comment":"batch"}`)
	facade := &testhelpers.FulfillmentFacadeStub{BulkApproveFn: func(_ context.Context, orderIDs []int64, reviewer, comment string) []model.ReviewResult {
		if len(orderIDs) != 3 || reviewer != "alice" || comment != "batch" {
			t.Fatalf("unexpected arguments: %v %q %q", orderIDs, reviewer, comment)
		}
		return []model.ReviewResult{
			{OrderID: 1, Order: &model.Order{ID: 1, Status: model.OrderStatusCompleted}},
			{OrderID: 2, Err: domainErrors.ErrInvalidTransition},
			{OrderID: 3, Err: domainErrors.ErrNotFound},
		}
	}}

	resp := performRequest(t, http.MethodPost, "/bulk/approve", NewAdminHandler(facade).BulkApprove, asReviewer("alice"), body, jsonHeaders())
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var payload []dto.ReviewResultResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 3 {
		t.Fatalf("expected 3 results, got %d", len(payload))
	}
	if !payload[0].OK || payload[0].Order == nil {
		t.Fatalf("expected first result to succeed, got %+v", payload[0])
	}
	if payload[1].OK || payload[1].Error == "" {
		t.Fatalf("expected second result to carry an error, got %+v", payload[1])
	}
}

func TestAdminHandlerBulkValidation(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{}

	resp := performRequest(t, http.MethodPost, "/bulk/approve", NewAdminHandler(facade).BulkApprove, asReviewer("alice"), []byte(`{"order_ids":[]}`), jsonHeaders())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for empty batch, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodPost, "/bulk/reject", NewAdminHandler(facade).BulkReject, asReviewer("alice"), []byte(`{}`), jsonHeaders())
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing ids, got %d", resp.Code)
	}
}

func TestAdminHandlerList(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{OrdersByStatusFn: func(_ context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
		if status != model.OrderStatusPending || limit != 0 {
			t.Fatalf("unexpected arguments: %s %d", status, limit)
		}
		return []model.Order{{ID: 1, Number: "ORD-1", Status: model.OrderStatusPending}}, nil
	}}

	resp := performRequest(t, http.MethodGet, "/orders", NewAdminHandler(facade).List, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestAdminHandlerListWithFilters(t *testing.T) {
	facade := &testhelpers.FulfillmentFacadeStub{OrdersByStatusFn: func(_ context.Context, status model.OrderStatus, limit int) ([]model.Order, error) {
		if status != model.OrderStatusCompleted || limit != 10 {
			t.Fatalf("unexpected arguments: %s %d", status, limit)
		}
		return nil, nil
	}}

	resp := performRequest(t, http.MethodGet, "/orders?status=COMPLETED&limit=10", NewAdminHandler(facade).List, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/orders?status=SHIPPED", NewAdminHandler(facade).List, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown status, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/orders?limit=ten", NewAdminHandler(facade).List, asReviewer("alice"), nil, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid limit, got %d", resp.Code)
	}
}
