package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"wallet-ledger-go/internal/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

// errorStatus maps an engine error to its HTTP status and stable code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, store.ErrPolicyDenied):
		return http.StatusForbidden, "policy_denied"
	case errors.Is(err, store.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "insufficient_balance"
	case errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "insufficient_funds"
	case errors.Is(err, store.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, store.ErrInvalidTransfer):
		return http.StatusBadRequest, "invalid_transfer"
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, store.ErrDuplicateTransaction):
		return http.StatusConflict, "duplicate_transaction"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, store.ErrInactive):
		return http.StatusConflict, "inactive"
	case errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, code, "internal server error", nil)
		return
	}

	zap.L().Info("Request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("code", code),
		zap.String("reason", err.Error()))
	writeError(w, status, code, err.Error(), nil)
}

// decodeAndValidate reads a single JSON object into dst and runs the
// struct's validate tags. It writes the error response itself.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid request body", nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid_input", "request body must only contain a single JSON object", nil)
		return false
	}

	if err := s.validator.Struct(dst); err != nil {
		details := make(map[string]string)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fmt.Sprintf("failed on '%s' rule", fe.Tag())
			}
		}
		writeError(w, http.StatusBadRequest, "invalid_input", "validation failed", details)
		return false
	}
	return true
}

// pageParams reads limit and offset from the query string.
func pageParams(r *http.Request, defaultLimit int) (int, int, error) {
	limit, offset := defaultLimit, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: limit must be an integer", store.ErrInvalidInput)
		}
		limit = v
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: offset must be an integer", store.ErrInvalidInput)
		}
		offset = v
	}
	return limit, offset, nil
}
