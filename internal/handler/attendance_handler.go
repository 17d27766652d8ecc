package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stemsi/presensi-backend/internal/response"
	"github.com/stemsi/presensi-backend/internal/service"
)

// AttendanceHandler exposes the attendance log to admins.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// parseLogFilters reads the shared group_id/day query filters.
func parseLogFilters(c *gin.Context) (groupID *int, day *time.Time, ok bool) {
	if raw := c.Query("group_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return nil, nil, false
		}
		groupID = &id
	}
	if raw := c.Query("day"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"day": "day must be formatted as YYYY-MM-DD",
			})
			return nil, nil, false
		}
		day = &d
	}
	return groupID, day, true
}

// List godoc
// GET /api/v1/admin/attendance?group_id=&day=&page=&per_page=
func (h *AttendanceHandler) List(c *gin.Context) {
	groupID, day, ok := parseLogFilters(c)
	if !ok {
		return
	}
	page, perPage := parsePagination(c)

	rows, total, err := h.attendanceService.ListLog(c.Request.Context(), groupID, day, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attendance": rows}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}

// Export godoc
// GET /api/v1/admin/attendance/export?group_id=&day=
// Streams the filtered attendance log as a CSV download.
func (h *AttendanceHandler) Export(c *gin.Context) {
	groupID, day, ok := parseLogFilters(c)
	if !ok {
		return
	}

	filename := fmt.Sprintf("attendance_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.attendanceService.WriteCSV(c.Request.Context(), groupID, day, c.Writer); err != nil {
		// Headers may already be out; just log, the truncated body signals
		// failure to the client.
		log.Error().Err(err).Msg("attendance csv export failed")
	}
}
