// Package marketplace provides the HTTP client for the core marketplace API.
// Catalog data, brand lists, booking records and parts-approval persistence
// all live behind this API; this service is a pure consumer.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"fieldparts_backend/platform/config"
	"fieldparts_backend/platform/logger"
)

// API is the interface consumed by the partsflow service. Kept small so tests
// can substitute a fake without spinning up HTTP servers.
type API interface {
	FetchRateGroups(ctx context.Context, categoryID, subCategoryID string) ([]RateGroupPayload, error)
	FetchBrands(ctx context.Context) ([]BrandPayload, error)
	FetchBookingDetail(ctx context.Context, bookingID string) (BookingDetailPayload, error)
	SubmitParts(ctx context.Context, payload SubmissionPayload) (SubmissionResult, error)
	Notify(ctx context.Context, notice Notice) error
}

// Client is the HTTP client for the core marketplace API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *logger.Logger
}

// New creates a new marketplace API client.
func New(cfg config.MarketplaceConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetMarketplaceTimeout()},
		baseURL:    cfg.GetMarketplaceBaseURL(),
		apiKey:     cfg.GetMarketplaceAPIKey(),
		log:        log,
	}
}

// FetchRateGroups fetches the purchasable parts catalog for a service category.
func (c *Client) FetchRateGroups(ctx context.Context, categoryID, subCategoryID string) ([]RateGroupPayload, error) {
	params := url.Values{}
	params.Set("categoryId", categoryID)
	if subCategoryID != "" {
		params.Set("subCategoryId", subCategoryID)
	}

	var resp rateGroupsResponse
	if err := c.get(ctx, "/provider/rate-groups?"+params.Encode(), &resp); err != nil {
		c.log.UpstreamError("fetch rate groups", err)
		return nil, err
	}
	return resp.RateGroups, nil
}

// FetchBrands fetches the brand list for the provider's active category.
func (c *Client) FetchBrands(ctx context.Context) ([]BrandPayload, error) {
	var resp brandsResponse
	if err := c.get(ctx, "/provider/brands", &resp); err != nil {
		c.log.UpstreamError("fetch brands", err)
		return nil, err
	}
	return resp.Brands, nil
}

// FetchBookingDetail fetches the booking the workflow is entered with,
// including service items and any previously submitted parts.
func (c *Client) FetchBookingDetail(ctx context.Context, bookingID string) (BookingDetailPayload, error) {
	var resp bookingDetailResponse
	if err := c.get(ctx, "/provider/bookings/"+url.PathEscape(bookingID), &resp); err != nil {
		c.log.UpstreamError("fetch booking detail", err)
		return BookingDetailPayload{}, err
	}
	return resp.Booking, nil
}

// SubmitParts sends the finalized parts list for a booking.
func (c *Client) SubmitParts(ctx context.Context, payload SubmissionPayload) (SubmissionResult, error) {
	var result SubmissionResult
	path := "/provider/bookings/" + url.PathEscape(payload.BookingID) + "/parts"
	if err := c.post(ctx, path, payload, &result); err != nil {
		c.log.UpstreamError("submit parts", err)
		return SubmissionResult{}, err
	}
	return result, nil
}

// Notify sends a fire-and-forget push notification through the marketplace's
// notification service. Delivery failures are the marketplace's concern; the
// caller only learns whether the request was accepted.
func (c *Client) Notify(ctx context.Context, notice Notice) error {
	if err := c.post(ctx, "/provider/notifications", notice, nil); err != nil {
		c.log.UpstreamError("notify", err)
		return err
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Success - continue to decode
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: invalid API key")
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("not found: %s", req.URL.Path)
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Compile-time check that Client implements API.
var _ API = (*Client)(nil)
