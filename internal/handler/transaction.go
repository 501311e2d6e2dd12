package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/service"
	"github.com/zetacard/bnpl-engine/pkg/response"
)

type TransactionHandler struct {
	service   *service.TransactionService
	validator *validator.Validate
}

func NewTransactionHandler(service *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		service:   service,
		validator: validator.New(),
	}
}

// ValidateCard handles POST /transactions/validate-card
func (h *TransactionHandler) ValidateCard(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var request domain.ValidateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	valid := h.service.ValidateCard(r.Context(), email, &request)
	response.Success(w, domain.ValidateCardResponse{Valid: valid})
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var request domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.AuthorizeRegular(r.Context(), email, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// CreateBNPL handles POST /transactions/bnpl?months=3
func (h *TransactionHandler) CreateBNPL(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	months, err := strconv.Atoi(r.URL.Query().Get("months"))
	if err != nil {
		response.BadRequest(w, "Invalid months parameter", err)
		return
	}

	var request domain.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.AuthorizeBNPL(r.Context(), email, &request, months)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// History handles GET /cards/{cardId}/transactions
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
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

	transactions, err := h.service.GetHistory(r.Context(), email, cardID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, transactions)
}

// Get handles GET /transactions/{transactionId}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "transactionId")
	if err != nil {
		response.BadRequest(w, "Invalid transaction id", err)
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), email, id)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, transaction)
}

// Update handles PUT /transactions/{transactionId}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "transactionId")
	if err != nil {
		response.BadRequest(w, "Invalid transaction id", err)
		return
	}

	var request domain.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	transaction, err := h.service.UpdateTransaction(r.Context(), email, id, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, transaction)
}

// Delete handles DELETE /transactions/{transactionId}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "transactionId")
	if err != nil {
		response.BadRequest(w, "Invalid transaction id", err)
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), email, id); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, nil)
}
