package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/service"
	"github.com/zetacard/bnpl-engine/pkg/response"
)

type CardHandler struct {
	service   *service.CardService
	validator *validator.Validate
}

func NewCardHandler(service *service.CardService) *CardHandler {
	return &CardHandler{
		service:   service,
		validator: validator.New(),
	}
}

// List handles GET /cards
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	cards, err := h.service.GetCards(r.Context(), email)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, cards)
}

// Get handles GET /cards/{cardId}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "cardId")
	if err != nil {
		response.BadRequest(w, "Invalid card id", err)
		return
	}

	card, err := h.service.GetCard(r.Context(), email, id)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, card)
}

// UpdateStatus handles PUT /cards/{cardId}/status
func (h *CardHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "cardId")
	if err != nil {
		response.BadRequest(w, "Invalid card id", err)
		return
	}

	var request domain.UpdateCardStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	card, err := h.service.UpdateStatus(r.Context(), email, id, request.Status)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, card)
}

// UpdateLimit handles PUT /cards/{cardId}/limit
func (h *CardHandler) UpdateLimit(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "cardId")
	if err != nil {
		response.BadRequest(w, "Invalid card id", err)
		return
	}

	var request domain.UpdateCardLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	card, err := h.service.ChangeLimit(r.Context(), email, id, request.NewLimit)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, card)
}
