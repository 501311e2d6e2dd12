package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zetacard/bnpl-engine/internal/domain"
	"github.com/zetacard/bnpl-engine/internal/service"
	"github.com/zetacard/bnpl-engine/pkg/response"
)

type ApplicationHandler struct {
	service   *service.ApplicationService
	validator *validator.Validate
}

func NewApplicationHandler(service *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Apply handles POST /applications
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	var request domain.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.Apply(r.Context(), email, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// List handles GET /applications
func (h *ApplicationHandler) List(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	applications, err := h.service.GetApplications(r.Context(), email)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, applications)
}

// Get handles GET /applications/{applicationId}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "applicationId")
	if err != nil {
		response.BadRequest(w, "Invalid application id", err)
		return
	}

	application, err := h.service.GetApplication(r.Context(), email, id)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, application)
}

// Update handles PUT /applications/{applicationId}
func (h *ApplicationHandler) Update(w http.ResponseWriter, r *http.Request) {
	email := callerEmail(r)
	if email == "" {
		response.Unauthorized(w, "Missing caller identity")
		return
	}

	id, err := pathUUID(r, "applicationId")
	if err != nil {
		response.BadRequest(w, "Invalid application id", err)
		return
	}

	var request domain.UpdateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.service.UpdateApplication(r.Context(), email, id, &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, result)
}
