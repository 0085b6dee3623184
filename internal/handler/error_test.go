package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/bharosa/internal/domain"
)

type envelope struct {
	Error errorBody `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	statuses := map[string]int{
		domain.EINVALID:      http.StatusBadRequest,
		domain.EUNAUTHORIZED: http.StatusUnauthorized,
		domain.EPAYMENT:      http.StatusPaymentRequired,
		domain.EFORBIDDEN:    http.StatusForbidden,
		domain.ENOTFOUND:     http.StatusNotFound,
		domain.ECONFLICT:     http.StatusConflict,
		domain.EGONE:         http.StatusGone,
		domain.ERATELIMIT:    http.StatusTooManyRequests,
		domain.EINTERNAL:     http.StatusInternalServerError,
		domain.ENOTIMPL:      http.StatusNotImplemented,
		domain.EUNAVAILABLE:  http.StatusBadGateway,
		"no_such_code":       http.StatusInternalServerError,
	}
	for code, want := range statuses {
		assert.Equal(t, want, ErrorCodeToHTTPStatus(code), code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "order not found",
			err:     domain.WithOp(domain.ErrOrderNotFound, "order.get"),
			status:  http.StatusNotFound,
			code:    domain.ENOTFOUND,
			message: "Order not found",
		},
		{
			name:    "empty cart",
			err:     domain.Invalid("order.checkout", "Cart is empty"),
			status:  http.StatusBadRequest,
			code:    domain.EINVALID,
			message: "Cart is empty",
		},
		{
			name:    "already paid",
			err:     domain.Conflict("order.payment_intent", "Order is already paid"),
			status:  http.StatusConflict,
			code:    domain.ECONFLICT,
			message: "Order is already paid",
		},
		{
			name:    "gateway down",
			err:     domain.Unavailable(errors.New("dial tcp: i/o timeout"), "order.payment_intent", "Failed to create Razorpay order"),
			status:  http.StatusBadGateway,
			code:    domain.EUNAVAILABLE,
			message: "Failed to create Razorpay order",
		},
		{
			name:    "internal details hidden",
			err:     domain.Internal(errors.New("pq: connection refused 10.0.0.5:5432"), "order.list", "query failed"),
			status:  http.StatusInternalServerError,
			code:    domain.EINTERNAL,
			message: "An internal error occurred. Please try again later.",
		},
		{
			name:    "plain error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    domain.EINTERNAL,
			message: "An internal error occurred. Please try again later.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			body := decodeEnvelope(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
			assert.Empty(t, body.Fields)
			assert.NotContains(t, rec.Body.String(), "5432")
		})
	}
}

func TestErrorResponse_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, domain.WithOp(domain.ErrOrderNotFound, "order.get"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found\n", rec.Body.String())
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestValidationErrorResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	rec := httptest.NewRecorder()

	err := domain.NewValidationError("order.checkout", "fullName", "required")
	err = domain.AddFieldError(err, "pincode", "required")
	ValidationErrorResponse(rec, req, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, domain.EINVALID, body.Code)
	assert.Equal(t, "Missing or invalid fields: fullName, pincode", body.Message)
	assert.Equal(t, map[string]string{"fullName": "required", "pincode": "required"}, body.Fields)

	t.Run("other errors keep their status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ValidationErrorResponse(rec, req, domain.WithOp(domain.ErrOrderNotFound, "order.get"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestConvenienceResponses(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter, r *http.Request)
		status int
	}{
		{"not found", NotFoundResponse, http.StatusNotFound},
		{"unauthorized", UnauthorizedResponse, http.StatusUnauthorized},
		{"forbidden", ForbiddenResponse, http.StatusForbidden},
		{"internal with nil", func(w http.ResponseWriter, r *http.Request) { InternalErrorResponse(w, r, nil) }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decodeEnvelope(t, rec).Message)
		})
	}
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		accept      string
		contentType string
		want        bool
	}{
		{name: "api path", path: "/api/orders", want: true},
		{name: "accept json", path: "/orders", accept: "application/json", want: true},
		{name: "accept json with charset", path: "/orders", accept: "application/json; charset=utf-8", want: true},
		{name: "json body", path: "/orders", contentType: "application/json", want: true},
		{name: "json suffix", path: "/orders.json", want: true},
		{name: "html", path: "/orders", accept: "text/html"},
		{name: "bare", path: "/orders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			assert.Equal(t, tt.want, acceptsJSON(req))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Status string `json:"status"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", strings.NewReader(`{"status":"SHIPPED"}`))
		require.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "SHIPPED", p.Status)
	})

	t.Run("empty body", func(t *testing.T) {
		p := payload{Status: "kept"}
		req := httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", http.NoBody)
		require.NoError(t, DecodeJSON(req, &p))
		assert.Equal(t, "kept", p.Status)
	})

	t.Run("malformed", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", strings.NewReader(`{"status":`))
		err := DecodeJSON(req, &p)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.Equal(t, "Malformed JSON body", domain.ErrorMessage(err))
	})

	t.Run("too large", func(t *testing.T) {
		var p payload
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/orders/x/status", strings.NewReader(`{"status":"`+strings.Repeat("x", 64)+`"}`))
		req.Body = http.MaxBytesReader(rec, req.Body, 16)
		err := DecodeJSON(req, &p)
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.Equal(t, "Request body too large", domain.ErrorMessage(err))
	})
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]bool{"success": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}
