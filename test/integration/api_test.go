package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/pack-fulfillment/internal/api"
	"github.com/eugenenazirov/pack-fulfillment/internal/application"
	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
	"github.com/eugenenazirov/pack-fulfillment/internal/metrics"
	"github.com/eugenenazirov/pack-fulfillment/internal/storage"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	registry := metrics.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	store := storage.NewMemoryStorage()
	calc := calculator.New()
	handler := api.NewHandler(calc, store, api.WithMetrics(recorder))
	logger := zaptest.NewLogger(t)
	apiRouter := api.NewRouter(handler, logger, api.WithRequestMetrics(recorder))

	root, err := application.BuildRootHandler(apiRouter, metrics.Handler(registry))
	if err != nil {
		t.Fatalf("build root handler: %v", err)
	}
	return root
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	updatePayload := map[string]any{"packSizes": []int{23, 31, 53}}
	payload, _ := json.Marshal(updatePayload)
	rec = performRequest(t, handler, http.MethodPut, "/api/pack-sizes", payload, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from pack sizes update, got %d", rec.Code)
	}

	calcPayload := map[string]any{"items": 500_000}
	body, _ := json.Marshal(calcPayload)
	rec = performRequest(t, handler, http.MethodPost, "/api/calculate", body, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from calculate, got %d", rec.Code)
	}

	var response struct {
		Packs      map[string]int `json:"packs"`
		TotalItems int            `json:"totalItems"`
		TotalPacks int            `json:"totalPacks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.TotalItems != 500_000 {
		t.Fatalf("unexpected total items %d", response.TotalItems)
	}
	if response.TotalPacks != 9438 {
		t.Fatalf("unexpected total packs %d", response.TotalPacks)
	}
	want := map[string]int{"23": 2, "31": 7, "53": 9429}
	if diff := cmp.Diff(want, response.Packs); diff != "" {
		t.Fatalf("packs mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegrationFulfillFlow(t *testing.T) {
	handler := newRouter(t)

	cases := []struct {
		order int
		want  map[string]int
	}{
		{order: 1, want: map[string]int{"250": 1}},
		{order: 250, want: map[string]int{"250": 1}},
		{order: 251, want: map[string]int{"500": 1}},
		{order: 501, want: map[string]int{"250": 1, "500": 1}},
		{order: 12001, want: map[string]int{"250": 1, "2000": 1, "5000": 2}},
		{order: 251000, want: map[string]int{"1000": 1, "5000": 50}},
	}

	for _, tc := range cases {
		body, _ := json.Marshal(map[string]any{
			"packs": []int{250, 500, 1000, 2000, 5000},
			"order": tc.order,
		})
		rec := performRequest(t, handler, http.MethodPost, "/api/fulfill", body, jsonHeaders)
		if rec.Code != http.StatusOK {
			t.Fatalf("order %d: expected 200, got %d: %s", tc.order, rec.Code, rec.Body.String())
		}

		var got map[string]int
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("order %d: decode response: %v", tc.order, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("order %d: packs mismatch (-want +got):\n%s", tc.order, diff)
		}
	}

	rec := performRequest(t, handler, http.MethodPost, "/api/fulfill", []byte(`{"packs": [], "order": 10}`), jsonHeaders)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty packs, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`pack_calculations_total{outcome="invalid_input"} 1`)) {
		t.Fatalf("expected invalid_input outcome to be counted")
	}
}
