package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gopfolio/internal/server/allocation"
	"github.com/dmitrijs2005/gopfolio/internal/server/models"
	"github.com/dmitrijs2005/gopfolio/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type allocationRequest struct {
	InvestedSelections []allocation.Selection `json:"investedSelections" validate:"dive"`
	GoalSelections     []allocation.Selection `json:"goalSelections" validate:"dive"`
	TotalInvested      decimal.Decimal        `json:"totalInvested"`
	TotalGoals         decimal.Decimal        `json:"totalGoals"`
}

type allocationResponse struct {
	commonResponse
	Totals       models.Totals        `json:"totals"`
	Transactions []models.Transaction `json:"transactions"`
}

type targetItem struct {
	Name   string          `json:"name" validate:"required"`
	Target decimal.Decimal `json:"target"`
}

type targetsRequest struct {
	Assets []targetItem `json:"assets" validate:"dive"`
	Goals  []targetItem `json:"goals" validate:"dive"`
}

type targetsResponse struct {
	commonResponse
	Updated int      `json:"updated"`
	Unknown []string `json:"unknown"`
}

type detailView struct {
	models.Detail
	Progress *decimal.Decimal `json:"progress,omitempty"`
}

func (h *Handler) handleSubmitAllocation(w http.ResponseWriter, r *http.Request) {
	var req allocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	res, err := h.portfolio.SubmitAllocation(r.Context(), allocation.Submission{
		Invested:         req.InvestedSelections,
		Goals:            req.GoalSelections,
		DeclaredInvested: req.TotalInvested,
		DeclaredGoals:    req.TotalGoals,
	})
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	txs := res.Transactions
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, allocationResponse{
		commonResponse: commonResponse{IsSuccess: true, Message: "allocation saved"},
		Totals:         res.Totals,
		Transactions:   txs,
	})
}

func (h *Handler) handleGetTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.portfolio.GetTotals(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *Handler) handleRecomputeTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.portfolio.RecomputeTotals(r.Context())
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *Handler) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	list, err := h.portfolio.GetDetails(r.Context(), kind)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	out := make([]detailView, len(list))
	for i, d := range list {
		out[i] = detailView{Detail: d}
		if p, ok := d.Progress(); ok {
			out[i].Progress = &p
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	// unparsable values fall back to the defaults
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	res, err := h.portfolio.GetTransactionHistory(r.Context(), kind, page, pageSize)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	if res.Items == nil {
		res.Items = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleSaveTargets(w http.ResponseWriter, r *http.Request) {
	var req targetsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	targets := make([]services.Target, 0, len(req.Assets)+len(req.Goals))
	for _, t := range req.Assets {
		targets = append(targets, services.Target{Kind: models.KindInvestment, Name: t.Name, Amount: t.Target})
	}
	for _, t := range req.Goals {
		targets = append(targets, services.Target{Kind: models.KindGoal, Name: t.Name, Amount: t.Target})
	}

	res, err := h.portfolio.SaveTargets(r.Context(), targets)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, targetsResponse{
		commonResponse: commonResponse{IsSuccess: true, Message: "targets updated"},
		Updated:        res.Updated,
		Unknown:        res.Unknown,
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolio.ClearAllFinancialData(r.Context()); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "all financial data cleared")
}
