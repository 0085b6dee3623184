package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/bharosa/internal/domain"
)

// contextKey is the type for values this package stores in request contexts.
type contextKey string

// respondWithError writes the JSON error envelope used across the API. It
// mirrors handler.ErrorResponse without importing the handler package, which
// itself imports middleware for GetLogger.
func respondWithError(w http.ResponseWriter, r *http.Request, status int, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"status", status,
	}
	if status >= 500 {
		GetLogger(r.Context()).Error("middleware error", attrs...)
	} else {
		GetLogger(r.Context()).Info("middleware error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// respondTooManyRequests is a convenience wrapper for 429 errors.
func respondTooManyRequests(w http.ResponseWriter, r *http.Request) {
	err := domain.Errorf(domain.ERATELIMIT, "", "Too many requests")
	respondWithError(w, r, http.StatusTooManyRequests, err)
}

// respondTooLarge is a convenience wrapper for 413 errors.
func respondTooLarge(w http.ResponseWriter, r *http.Request) {
	err := domain.Errorf(domain.EINVALID, "", "Request body too large")
	respondWithError(w, r, http.StatusRequestEntityTooLarge, err)
}

// respondTimeout is a convenience wrapper for 503 errors.
func respondTimeout(w http.ResponseWriter, r *http.Request) {
	err := domain.Errorf(domain.EUNAVAILABLE, "", "Request timeout")
	respondWithError(w, r, http.StatusServiceUnavailable, err)
}
