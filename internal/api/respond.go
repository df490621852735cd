package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eugenenazirov/pack-fulfillment/internal/calculator"
)

type errorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

// writeCalculationError maps calculator failures onto HTTP statuses.
func writeCalculationError(w http.ResponseWriter, err error) {
	if kind, ok := calculator.KindOf(err); ok {
		resp := errorResponse{Kind: string(kind), Details: err.Error()}
		status := http.StatusBadRequest
		switch kind {
		case calculator.KindInvalidInput:
			resp.Error = "Invalid request"
		case calculator.KindInfeasible:
			status = http.StatusUnprocessableEntity
			resp.Error = "Cannot fulfil order"
			resp.Suggestion = "Add a smaller pack size or adjust the order quantity"
		}
		writeJSON(w, status, resp)
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Calculation timed out", err.Error(),
			"Retry with a smaller order or fewer pack sizes")
	default:
		writeInternalError(w, err)
	}
}
