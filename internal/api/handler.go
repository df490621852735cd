package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
	"github.com/eugenenazirov/pack-fulfillment/internal/metrics"
	"github.com/eugenenazirov/pack-fulfillment/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultCalculationTimeout = 5 * time.Second
	defaultBatchConcurrency   = 4
	defaultMaxBatchSize       = 100
)

// Handler wires calculator and storage dependencies into HTTP handlers.
type Handler struct {
	calculator calculator.Calculator
	storage    storage.Storage
	metrics    *metrics.Recorder

	clock              func() time.Time
	calculationTimeout time.Duration
	batchConcurrency   int
	maxBatchSize       int

	mu                 sync.RWMutex
	packSizesUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMetrics records calculation outcomes on rec.
func WithMetrics(rec *metrics.Recorder) HandlerOption {
	return func(h *Handler) {
		h.metrics = rec
	}
}

// WithCalculationTimeout bounds the time a single calculation may take.
func WithCalculationTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.calculationTimeout = timeout
		}
	}
}

// WithBatchLimits sets how many batch orders run in parallel and how many
// orders a batch may contain.
func WithBatchLimits(concurrency, maxSize int) HandlerOption {
	return func(h *Handler) {
		if concurrency > 0 {
			h.batchConcurrency = concurrency
		}
		if maxSize > 0 {
			h.maxBatchSize = maxSize
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(calc calculator.Calculator, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		calculator: calc,
		storage:    store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		calculationTimeout: defaultCalculationTimeout,
		batchConcurrency:   defaultBatchConcurrency,
		maxBatchSize:       defaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.packSizesUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetPackSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.storage.GetPackSizes(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := packSizesResponse{
		PackSizes: sizes,
		UpdatedAt: h.currentPackSizesUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutPackSizes(w http.ResponseWriter, r *http.Request) {
	var req packSizesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.PackSizes) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid pack sizes", "packSizes must contain at least one size")
		return
	}

	if err := h.storage.SetPackSizes(r.Context(), req.PackSizes); err != nil {
		if errors.Is(err, storage.ErrInvalidPackSizes) {
			writeError(w, http.StatusBadRequest, "Invalid pack sizes", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markPackSizesUpdated()

	sizes, err := h.storage.GetPackSizes(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := packSizesResponse{
		PackSizes: sizes,
		UpdatedAt: h.currentPackSizesUpdatedAt(),
		Message:   "Pack sizes updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFulfill serves the stateless contract: raw packs and order in, a
// size-to-count mapping out.
func (h *Handler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req calculator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	result, err := h.run(r.Context(), func(ctx context.Context) (calculator.Result, error) {
		return h.calculator.Fulfill(ctx, req)
	})
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, packsBySize(result.Plan))
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Items <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "items must be a positive integer")
		return
	}

	packSizes, err := h.storage.GetPackSizes(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	result, calcErr := h.run(r.Context(), func(ctx context.Context) (calculator.Result, error) {
		return h.calculator.CalculatePacks(ctx, req.Items, packSizes)
	})
	elapsed := time.Since(start)

	if calcErr != nil {
		writeCalculationError(w, calcErr)
		return
	}

	resp := newCalculateResponse(result)
	resp.CalculationTimeMs = elapsed.Milliseconds()
	writeJSON(w, http.StatusOK, resp)
}

// handleCalculateBatch computes plans for several orders against the stored
// pack sizes. Orders run on a bounded pool; results keep the request order.
func (h *Handler) handleCalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "items must contain at least one order")
		return
	}
	if len(req.Items) > h.maxBatchSize {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("a batch may contain at most %d orders", h.maxBatchSize))
		return
	}

	packSizes, err := h.storage.GetPackSizes(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}

	results := make([]batchResult, len(req.Items))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(h.batchConcurrency)

	for i, items := range req.Items {
		g.Go(func() error {
			result, err := h.run(ctx, func(ctx context.Context) (calculator.Result, error) {
				return h.calculator.CalculatePacks(ctx, items, packSizes)
			})
			if err != nil {
				kind, ok := calculator.KindOf(err)
				if !ok {
					return err
				}
				results[i] = batchResult{Items: items, Error: &batchError{Kind: string(kind), Message: err.Error()}}
				return nil
			}
			resp := newCalculateResponse(result)
			results[i] = batchResult{Items: items, Result: &resp}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// run executes one calculation under the configured timeout and records its outcome.
func (h *Handler) run(ctx context.Context, calc func(context.Context) (calculator.Result, error)) (calculator.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, h.calculationTimeout)
	defer cancel()

	start := time.Now()
	result, err := calc(ctx)
	h.metrics.ObserveCalculation(outcomeOf(err), time.Since(start), result.Horizon)
	return result, err
}

func (h *Handler) currentPackSizesUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.packSizesUpdatedAt
}

func (h *Handler) markPackSizesUpdated() {
	h.mu.Lock()
	h.packSizesUpdatedAt = h.clock()
	h.mu.Unlock()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, calculator.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, calculator.ErrInfeasible):
		return metrics.OutcomeInfeasible
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeError
	}
}

func packsBySize(plan calculator.Plan) map[string]int {
	packs := make(map[string]int, len(plan))
	for _, size := range plan.Sizes() {
		packs[strconv.Itoa(size)] = plan[size]
	}
	return packs
}

func newCalculateResponse(result calculator.Result) calculateResponse {
	return calculateResponse{
		Items:      result.Order,
		Packs:      packsBySize(result.Plan),
		TotalPacks: result.TotalPacks,
		TotalItems: result.TotalItems,
		Excess:     result.Excess,
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type packSizesRequest struct {
	PackSizes []int `json:"packSizes"`
}

type calculateRequest struct {
	Items int `json:"items"`
}

type batchRequest struct {
	Items []int `json:"items"`
}

type calculateResponse struct {
	Items             int            `json:"items"`
	Packs             map[string]int `json:"packs"`
	TotalPacks        int            `json:"totalPacks"`
	TotalItems        int            `json:"totalItems"`
	Excess            int            `json:"excess"`
	CalculationTimeMs int64          `json:"calculationTimeMs,omitempty"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
}

type batchResult struct {
	Items  int                `json:"items"`
	Result *calculateResponse `json:"result,omitempty"`
	Error  *batchError        `json:"error,omitempty"`
}

type batchError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type packSizesResponse struct {
	PackSizes []int     `json:"packSizes"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
