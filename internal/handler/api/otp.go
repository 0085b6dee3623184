package api

import (
	"net/http"

	"github.com/dukerupert/bharosa/internal/handler"
	"github.com/dukerupert/bharosa/internal/service"
)

// OTPHandler issues and verifies one-time codes
type OTPHandler struct {
	otp service.OTPService
}

// NewOTPHandler creates a new OTP handler
func NewOTPHandler(otp service.OTPService) *OTPHandler {
	return &OTPHandler{otp: otp}
}

type sendOTPRequest struct {
	Identifier string `json:"identifier"`
}

// Send handles POST /api/send-otp
func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	issue, err := h.otp.Issue(r.Context(), req.Identifier)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, issue)
}

type verifyOTPRequest struct {
	Identifier string `json:"identifier"`
	OTP        string `json:"otp"`
}

// Verify handles POST /api/verify-otp
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.otp.Verify(r.Context(), req.Identifier, req.OTP); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]bool{"verified": true})
}
