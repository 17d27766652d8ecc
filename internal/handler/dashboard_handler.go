package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/presensi-backend/internal/response"
	"github.com/stemsi/presensi-backend/internal/service"
)

// DashboardHandler serves aggregated recognition counters.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Today godoc
// GET /api/v1/admin/dashboard/today
func (h *DashboardHandler) Today(c *gin.Context) {
	stats, err := h.dashboardService.TodayStats(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
