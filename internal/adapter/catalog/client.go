package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/plan2d/fulfillment/internal/domain/errors"
	"github.com/plan2d/fulfillment/internal/domain/model"
)

// Client exposes the plan catalog collaborator. The engine only reads from
// it: one price lookup at order creation, one asset resolution per admitted
// download.
type Client interface {
	Price(ctx context.Context, planRef string) (model.Price, error)
	Asset(ctx context.Context, planRef string) (*model.AssetGrant, error)
}

// HTTPClient implements Client via the catalog HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type priceResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type assetResponse struct {
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewHTTPClient creates catalog client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("catalog url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Price returns the current catalog quotation for a plan. The caller
// snapshots the result; later catalog changes never touch existing orders.
func (c *HTTPClient) Price(ctx context.Context, planRef string) (model.Price, error) {
	var data priceResponse
	if err := c.get(ctx, path.Join("/api/plans/", planRef, "/price"), &data); err != nil {
		return model.Price{}, err
	}

	amount, err := decimal.NewFromString(data.Amount)
	if err != nil {
		return model.Price{}, fmt.Errorf("parse catalog price: %w", err)
	}
	return model.Price{Amount: amount, Currency: data.Currency}, nil
}

// Asset resolves a time-boxed signed URL for the deliverable file.
func (c *HTTPClient) Asset(ctx context.Context, planRef string) (*model.AssetGrant, error) {
	var data assetResponse
	if err := c.get(ctx, path.Join("/api/plans/", planRef, "/asset"), &data); err != nil {
		return nil, err
	}
	return &model.AssetGrant{URL: data.URL, Filename: data.Filename, ExpiresAt: data.ExpiresAt}, nil
}

func (c *HTTPClient) get(ctx context.Context, endpointPath string, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, endpointPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, out)
	case http.StatusNotFound:
		return domainErrors.ErrNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("catalog request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return fmt.Errorf("catalog error: %s", resp.Status)
	}
}
