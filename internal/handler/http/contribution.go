package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/contribution"
	"github.com/contactevin2u/AAHRMS-sub010/internal/domain/payrun"
	"github.com/contactevin2u/AAHRMS-sub010/internal/handler/http/response"
)

type ContributionHandler interface {
	Summary(w http.ResponseWriter, r *http.Request)
	Details(w http.ResponseWriter, r *http.Request)
	YearlyReport(w http.ResponseWriter, r *http.Request)
	BankTransfer(w http.ResponseWriter, r *http.Request)
}

type contributionHandlerImpl struct {
	contributionService contribution.ContributionService
}

func NewContributionHandler(contributionService contribution.ContributionService) ContributionHandler {
	return &contributionHandlerImpl{contributionService: contributionService}
}

func (h *contributionHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.contributionService.Summary(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *contributionHandlerImpl) Details(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.contributionService.Details(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *contributionHandlerImpl) YearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "Invalid year", nil)
		return
	}

	var scopeKey *string
	if v := r.URL.Query().Get("scope"); v != "" {
		if _, err := payrun.ParseScopeKey(v); err != nil {
			response.BadRequest(w, "Invalid scope", nil)
			return
		}
		scope := v
		scopeKey = &scope
	}

	result, err := h.contributionService.YearlyReport(r.Context(), year, scopeKey)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *contributionHandlerImpl) BankTransfer(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, err := h.contributionService.BankTransfer(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
