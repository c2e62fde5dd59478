package api

import (
	"fmt"
	"net/http"

	"ms-billsplit/internal/dashboard"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/utils"
)

type Handler struct {
	DashboardService *dashboard.DashboardService
	Logger           *logger.Logger
}

func NewHandler(dashboardService *dashboard.DashboardService) *Handler {
	return &Handler{
		DashboardService: dashboardService,
		Logger:           logger.NewLogger(),
	}
}

func (h *Handler) GetTables(w http.ResponseWriter, r *http.Request) {
	result, err := h.DashboardService.GetTables(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Dashboard GetTables: %v", err))
		utils.WriteError(w, "Failed to fetch dashboard data", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.DashboardService.GetSummary(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Dashboard GetSummary: %v", err))
		utils.WriteError(w, "Failed to fetch dashboard summary", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}
