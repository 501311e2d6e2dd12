package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zetacard/bnpl-engine/internal/otp"
	"github.com/zetacard/bnpl-engine/pkg/response"
)

// AuthHandler exposes the one-time-code store. Delivery of the code (email,
// SMS) is owned by surrounding infrastructure; this surface only issues and
// verifies.
type AuthHandler struct {
	otp       *otp.Store
	validator *validator.Validate
}

func NewAuthHandler(store *otp.Store) *AuthHandler {
	return &AuthHandler{
		otp:       store,
		validator: validator.New(),
	}
}

type issueCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type verifyCodeResponse struct {
	Valid bool `json:"valid"`
}

// IssueCode handles POST /auth/otp
func (h *AuthHandler) IssueCode(w http.ResponseWriter, r *http.Request) {
	var request issueCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	if _, err := h.otp.Issue(r.Context(), request.Email); err != nil {
		response.InternalServerError(w, "Failed to issue code", err)
		return
	}

	response.Created(w, nil)
}

// VerifyCode handles POST /auth/otp/verify
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var request verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	valid, err := h.otp.Verify(r.Context(), request.Email, request.Code)
	if err != nil {
		response.InternalServerError(w, "Failed to verify code", err)
		return
	}

	response.Success(w, verifyCodeResponse{Valid: valid})
}
