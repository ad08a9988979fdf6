package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldparts_backend/platform/logger"
)

type clientTestConfig struct {
	baseURL string
}

func (c clientTestConfig) GetMarketplaceBaseURL() string        { return c.baseURL }
func (c clientTestConfig) GetMarketplaceAPIKey() string         { return "test-key" }
func (c clientTestConfig) GetMarketplaceTimeout() time.Duration { return 2 * time.Second }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(clientTestConfig{baseURL: srv.URL}, logger.New("development"))
}

func TestFetchRateGroups(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/provider/rate-groups" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing api key, got %q", got)
		}
		if got := r.URL.Query().Get("categoryId"); got != "cat-ac" {
			t.Errorf("categoryId not forwarded, got %q", got)
		}
		if got := r.URL.Query().Get("subCategoryId"); got != "sub-split" {
			t.Errorf("subCategoryId not forwarded, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rateGroups": []map[string]interface{}{
				{"title": "Filters", "rates": []map[string]interface{}{
					{"id": "r1", "description": "HEPA Filter", "unitPrice": 250.0},
				}},
			},
		})
	})

	groups, err := client.FetchRateGroups(context.Background(), "cat-ac", "sub-split")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(groups) != 1 || groups[0].Rates[0].UnitPrice != 250 {
		t.Fatalf("unexpected payload: %+v", groups)
	}
}

func TestFetchBookingDetailNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := client.FetchBookingDetail(context.Background(), "bk-missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestSubmitParts(t *testing.T) {
	var received SubmissionPayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/provider/bookings/bk-1/parts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SubmissionResult{Success: true, Message: "queued"})
	})

	payload := SubmissionPayload{
		BookingID:             "bk-1",
		Parts:                 []SubmissionLine{{RateID: "r1", Quantity: 2, UnitPrice: 250, TotalPrice: 500}},
		OriginalAmount:        1200,
		AdditionalPartsAmount: 500,
		TotalAmount:           1700,
	}
	result, err := client.SubmitParts(context.Background(), payload)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.Success || result.Message != "queued" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if received.TotalAmount != 1700 || len(received.Parts) != 1 {
		t.Fatalf("payload not sent intact: %+v", received)
	}
}

func TestSubmitPartsUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.SubmitParts(context.Background(), SubmissionPayload{BookingID: "bk-1"}); err == nil {
		t.Fatalf("expected error for 500")
	}
}

func TestBrandPolymorphicDecoding(t *testing.T) {
	raw := []byte(`[
		{"id": "p1", "description": "A", "unitPrice": 1, "quantity": 1, "serviceItemId": "si1", "brand": {"id": "b1", "name": "Daikin"}},
		{"id": "p2", "description": "B", "unitPrice": 2, "quantity": 1, "serviceItemId": "si1", "brand": "b2"},
		{"id": "p3", "description": "C", "unitPrice": 3, "quantity": 1, "serviceItemId": "si1"}
	]`)

	var parts []PersistedPartPayload
	if err := json.Unmarshal(raw, &parts); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(parts[0].Brand) == 0 || len(parts[1].Brand) == 0 {
		t.Fatalf("brand references must survive decoding raw")
	}
	if len(parts[2].Brand) != 0 {
		t.Fatalf("absent brand must stay empty")
	}
}
