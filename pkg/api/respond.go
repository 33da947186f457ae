package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"gitlab.connectwisedev.com/pos-service/models"
	"gitlab.connectwisedev.com/pos-service/pkg/pos"
)

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// errorEnvelope is the body of every error response. Client errors also
// carry the message at the top level, where the storefront UI reads it.
type errorEnvelope struct {
	Message string    `json:"message,omitempty"`
	Error   errorBody `json:"error"`
}

func newErrorEnvelope(status int, message string) errorEnvelope {
	env := errorEnvelope{Error: errorBody{Message: message, Status: status}}
	if status < http.StatusInternalServerError {
		env.Message = message
	}
	return env
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("response_encode_failed", "status", status, "error", err)
	}
}

func writeMessage(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, newErrorEnvelope(status, message))
}

func statusFor(kind pos.Kind) int {
	switch kind {
	case pos.KindInvalidInput, pos.KindMissingField, pos.KindDuplicateEmail,
		pos.KindTotalMismatch, pos.KindUploadRejected:
		return http.StatusBadRequest
	case pos.KindNotFound, pos.KindCustomerNotFound, pos.KindProductNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err in the error envelope. Internal failures get a
// generic message; their cause is only logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, "Internal Server Error"

	var maxErr *http.MaxBytesError
	var pe *pos.Error
	switch {
	case errors.As(err, &maxErr):
		status, message = http.StatusRequestEntityTooLarge, "Request entity too large"
	case errors.As(err, &pe) && pe.Kind != pos.KindInternal:
		status, message = statusFor(pe.Kind), pe.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeMessage(w, h.logger, status, message)
}

// listResponse is the listing shape the storefront expects: the items under
// a resource-named key next to the page counters.
func listResponse[T any](key string, p models.Page[T]) map[string]any {
	return map[string]any{
		key:           p.Items,
		"currentPage": p.Page,
		"totalPages":  p.TotalPages,
		"total":       p.Total,
	}
}
