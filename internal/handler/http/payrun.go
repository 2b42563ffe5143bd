package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/handler/http/response"
)

type PayrunHandler interface {
	// Runs
	CreateRun(w http.ResponseWriter, r *http.Request)
	CreateAllDepartments(w http.ResponseWriter, r *http.Request)
	CreateAllOutlets(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
	RecalculateRun(w http.ResponseWriter, r *http.Request)
	FinalizeRun(w http.ResponseWriter, r *http.Request)
	DeleteRun(w http.ResponseWriter, r *http.Request)
	ApplyChangeSet(w http.ResponseWriter, r *http.Request)

	// Items
	UpdateItem(w http.ResponseWriter, r *http.Request)
	RecalculateItem(w http.ResponseWriter, r *http.Request)
	DeleteItem(w http.ResponseWriter, r *http.Request)
}

type payrunHandlerImpl struct {
	runService payrun.RunService
}

func NewPayrunHandler(runService payrun.RunService) PayrunHandler {
	return &payrunHandlerImpl{runService: runService}
}

// ========== RUNS ==========

func (h *payrunHandlerImpl) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req payrun.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.runService.CreateRun(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll run created", result)
}

func (h *payrunHandlerImpl) CreateAllDepartments(w http.ResponseWriter, r *http.Request) {
	var req payrun.BulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.runService.CreateAllDepartments(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Department payroll runs generated", result)
}

func (h *payrunHandlerImpl) CreateAllOutlets(w http.ResponseWriter, r *http.Request) {
	var req payrun.BulkGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.runService.CreateAllOutlets(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Outlet payroll runs generated", result)
}

func (h *payrunHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	var filter payrun.RunFilter

	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid year", nil)
			return
		}
		filter.Year = &year
	}
	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid month", nil)
			return
		}
		filter.Month = &month
	}
	if v := r.URL.Query().Get("scope"); v != "" {
		if _, err := payrun.ParseScopeKey(v); err != nil {
			response.BadRequest(w, "Invalid scope", nil)
			return
		}
		scope := v
		filter.ScopeKey = &scope
	}

	result, err := h.runService.ListRuns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrunHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.runService.GetRun(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrunHandlerImpl) RecalculateRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.runService.RecalculateAll(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run recalculated", result)
}

func (h *payrunHandlerImpl) FinalizeRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.runService.FinalizeRun(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run finalized", result)
}

func (h *payrunHandlerImpl) DeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if err := h.runService.DeleteRun(r.Context(), runID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run deleted", nil)
}

func (h *payrunHandlerImpl) ApplyChangeSet(w http.ResponseWriter, r *http.Request) {
	var req payrun.ChangeSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.RunID = chi.URLParam(r, "runID")

	result, err := h.runService.ApplyChangeSet(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== ITEMS ==========

func (h *payrunHandlerImpl) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req payrun.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = chi.URLParam(r, "itemID")

	result, err := h.runService.UpdateItem(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrunHandlerImpl) RecalculateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	result, err := h.runService.RecalculateItem(r.Context(), itemID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll item recalculated", result)
}

func (h *payrunHandlerImpl) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	if err := h.runService.DeleteItem(r.Context(), itemID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll item deleted", nil)
}
