package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/resignation"
	"github.com/contactevin2u/AAHRMS-sub010/internal/handler/http/response"
)

type ResignationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	CalculateSettlement(w http.ResponseWriter, r *http.Request)
	CheckLeaves(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	CleanupLeaves(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type resignationHandlerImpl struct {
	resignationService resignation.ResignationService
}

func NewResignationHandler(resignationService resignation.ResignationService) ResignationHandler {
	return &resignationHandlerImpl{resignationService: resignationService}
}

func (h *resignationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req resignation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.resignationService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Resignation created", result)
}

func (h *resignationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.resignationService.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *resignationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resignationID")

	result, err := h.resignationService.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *resignationHandlerImpl) CalculateSettlement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resignationID")

	result, err := h.resignationService.CalculateSettlement(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Settlement recalculated", result)
}

func (h *resignationHandlerImpl) CheckLeaves(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resignationID")

	result, err := h.resignationService.CheckLeaves(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *resignationHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	var req resignation.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	id := chi.URLParam(r, "resignationID")

	result, err := h.resignationService.Process(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Resignation processed", result)
}

func (h *resignationHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resignationID")

	result, err := h.resignationService.Cancel(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Resignation cancelled", result)
}

func (h *resignationHandlerImpl) CleanupLeaves(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resignationID")

	result, err := h.resignationService.CleanupLeaves(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Conflicting leaves cancelled", result)
}

func (h *resignationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resignationID")

	if err := h.resignationService.Delete(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Resignation deleted", nil)
}
