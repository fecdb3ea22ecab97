package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"honoraires/internal/core"
	"honoraires/internal/log"
	"honoraires/internal/middleware/trace"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// errBadRequest marks malformed input that never reached the ledger.
var errBadRequest = errors.New("bad request")

var validationErrors = []error{
	errBadRequest,
	core.ErrInvalidFilter,
	core.ErrInvalidRange,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidYear,
	core.ErrInvalidAmount,
	core.ErrEmptyLabel,
	core.ErrEmptyName,
	core.ErrInvalidBucket,
	core.ErrMissingClient,
	core.ErrNegativeAdvance,
	core.ErrLabelTooLong,
	core.ErrZeroDate,
	core.ErrAdvanceNotAllowed,
}

// classify maps a ledger error to its HTTP status and log category.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrEntryNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case core.IsBusinessError(err):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, core.ErrPersistence):
		return http.StatusInternalServerError, log.ErrorTypeDatabase
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, log.ErrorTypeValidation
		}
	}
	return http.StatusInternalServerError, log.ErrorTypeInternal
}

// writeError logs err and answers with its mapped status. Internal failures
// are not echoed to the caller.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error, fields log.LogFields) {
	status, errorType := classify(err)
	ctx := r.Context()
	if fields == nil {
		fields = log.NewFields()
	}
	log.LogError(ctx, "Request failed", err, errorType, op,
		fields.WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery))

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg, RequestID: trace.GetRequestID(ctx)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
