package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/service"
	"github.com/zetacard/bnpl-engine/pkg/response"
)

type InstallmentHandler struct {
	service   *service.InstallmentService
	validator *validator.Validate
}

func NewInstallmentHandler(service *service.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Pay handles POST /installments/{installmentId}/pay
func (h *InstallmentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "installmentId")
	if err != nil {
		response.BadRequest(w, "Invalid installment id", err)
		return
	}

	var request domain.PayInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	installment, err := h.service.Pay(r.Context(), email, id, request.Amount)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, installment)
}

// Get handles GET /installments/{installmentId}
func (h *InstallmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "installmentId")
	if err != nil {
		response.BadRequest(w, "Invalid installment id", err)
		return
	}

	installment, err := h.service.GetInstallment(r.Context(), email, id)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, installment)
}

// ByTransaction handles GET /transactions/{transactionId}/installments
func (h *InstallmentHandler) ByTransaction(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	transactionID, err := pathUUID(r, "transactionId")
	if err != nil {
		response.BadRequest(w, "Invalid transaction id", err)
		return
	}

	var installments []*domain.InstallmentResponse
	if r.URL.Query().Get("pending") == "true" {
		installments, err = h.service.GetPendingByTransaction(r.Context(), email, transactionID)
	} else {
		installments, err = h.service.GetByTransaction(r.Context(), email, transactionID)
	}
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, installments)
}

// OverdueByCard handles GET /cards/{cardId}/installments/overdue
func (h *InstallmentHandler) OverdueByCard(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	cardID, err := pathUUID(r, "cardId")
	if err != nil {
		response.BadRequest(w, "Invalid card id", err)
		return
	}

	installments, err := h.service.GetOverdueByCard(r.Context(), email, cardID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, installments)
}

// LateFeeByCard handles GET /cards/{cardId}/late-fee?as_of=2026-01-31
func (h *InstallmentHandler) LateFeeByCard(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	cardID, err := pathUUID(r, "cardId")
	if err != nil {
		response.BadRequest(w, "Invalid card id", err)
		return
	}

	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "Invalid as_of date", err)
			return
		}
	}

	fees, err := h.service.TotalLateFeeByCard(r.Context(), email, cardID, asOf)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, fees)
}

// Create handles POST /installments (administrative)
func (h *InstallmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var request domain.CreateInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	installment, err := h.service.CreateInstallment(r.Context(), email, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, installment)
}

// Update handles PUT /installments/{installmentId} (administrative)
func (h *InstallmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "installmentId")
	if err != nil {
		response.BadRequest(w, "Invalid installment id", err)
		return
	}

	var request domain.UpdateInstallmentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	installment, err := h.service.UpdateInstallment(r.Context(), email, id, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, installment)
}

// Delete handles DELETE /installments/{installmentId} (administrative)
func (h *InstallmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "installmentId")
	if err != nil {
		response.BadRequest(w, "Invalid installment id", err)
		return
	}

	if err := h.service.DeleteInstallment(r.Context(), email, id); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, nil)
}
