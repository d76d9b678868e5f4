package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/disposable/internal/domain"
	"github.com/MrSnakeDoc/disposable/internal/httpserver/deps"
	"github.com/MrSnakeDoc/disposable/internal/logger"
)

const maxBatchBody = 1 << 20

type batchRequest struct {
	Inputs []string `json:"inputs"`
}

type batchResponse struct {
	Results map[string]domain.CheckResult `json:"results"`
}

// Check evaluates ?email= or ?domain=. Invalid input is a 400, a store
// failure behind the checker chain a 503.
func Check(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		email, name := q.Get("email"), q.Get("domain")

		var (
			res domain.CheckResult
			err error
		)
		switch {
		case email != "":
			res, err = d.Detector.Check(r.Context(), email)
		case name != "":
			res, err = d.Detector.CheckDomain(r.Context(), name)
		default:
			writeJSON(w, d.Logger, http.StatusBadRequest, errorResponse{Error: "email or domain query parameter is required"})
			return
		}

		switch {
		case err == nil:
			writeJSON(w, d.Logger, http.StatusOK, res)
		case errors.Is(err, domain.ErrInvalidFormat):
			writeJSON(w, d.Logger, http.StatusBadRequest, errorResponse{Error: err.Error(), Input: res.Input})
		case errors.Is(err, domain.ErrPersistence):
			d.Logger.Error("check failed", logger.Error(err))
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, errorResponse{Error: "domain store unavailable", Input: res.Input})
		default:
			d.Logger.Error("check failed", logger.Error(err))
			writeJSON(w, d.Logger, http.StatusInternalServerError, errorResponse{Error: "internal error", Input: res.Input})
		}
	}
}

// CheckBatch evaluates {"inputs": [...]} and never fails per input.
func CheckBatch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, d.Logger, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		if d.MaxBatch > 0 && len(req.Inputs) > d.MaxBatch {
			writeJSON(w, d.Logger, http.StatusRequestEntityTooLarge,
				errorResponse{Error: fmt.Sprintf("at most %d inputs per request", d.MaxBatch)})
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, batchResponse{Results: d.Detector.CheckBatch(r.Context(), req.Inputs)})
	}
}
