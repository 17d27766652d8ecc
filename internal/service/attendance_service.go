package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/stemsi/presensi-backend/internal/model"
	"github.com/stemsi/presensi-backend/internal/repository"
)

// AttendanceService exposes the attendance log for admin listing and
// CSV export.
type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
}

// NewAttendanceService creates a new AttendanceService.
func NewAttendanceService(attendanceRepo *repository.AttendanceRepository) *AttendanceService {
	return &AttendanceService{attendanceRepo: attendanceRepo}
}

// ListLog retrieves the joined attendance log with filters and pagination.
func (s *AttendanceService) ListLog(ctx context.Context, groupID *int, day *time.Time, page, perPage int) ([]model.AttendanceLogRow, int, error) {
	offset := (page - 1) * perPage
	return s.attendanceRepo.ListLog(ctx, groupID, day, perPage, offset)
}

// csvHeader is the column layout of the attendance export.
var csvHeader = []string{
	"group_id", "group_name", "session_date", "student_code", "student_name",
	"recognized_at", "confidence", "liveness_passed", "source",
}

// WriteCSV streams the full filtered attendance log as CSV.
func (s *AttendanceService) WriteCSV(ctx context.Context, groupID *int, day *time.Time, w io.Writer) error {
	rows, err := s.attendanceRepo.ListLogAll(ctx, groupID, day)
	if err != nil {
		return fmt.Errorf("list attendance log: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range rows {
		groupIDStr, groupName := "", ""
		if r.GroupID != nil {
			groupIDStr = strconv.Itoa(*r.GroupID)
		}
		if r.GroupName != nil {
			groupName = *r.GroupName
		}
		record := []string{
			groupIDStr,
			groupName,
			r.SessionDate.Format("2006-01-02"),
			r.StudentCode,
			r.StudentName,
			r.RecognizedAt.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Confidence, 'f', 4, 64),
			strconv.FormatBool(r.LivenessPassed),
			r.Source,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
