package model

import "time"

// AttendanceEvent records one accepted recognition inside a session.
type AttendanceEvent struct {
	ID             int64     `json:"id"`
	SessionID      int       `json:"session_id"`
	StudentID      int       `json:"student_id"`
	RecognizedAt   time.Time `json:"recognized_at"`
	Confidence     float64   `json:"confidence"`
	LivenessPassed bool      `json:"liveness_passed"`
	Source         string    `json:"source"`
}

// AttendanceLogRow is the joined attendance view used by the admin log
// listing and CSV export.
type AttendanceLogRow struct {
	EventID        int64     `json:"event_id"`
	GroupID        *int      `json:"group_id,omitempty"`
	GroupName      *string   `json:"group_name,omitempty"`
	SessionDate    time.Time `json:"session_date"`
	StudentID      int       `json:"student_id"`
	StudentCode    string    `json:"student_code"`
	StudentName    string    `json:"student_name"`
	RecognizedAt   time.Time `json:"recognized_at"`
	Confidence     float64   `json:"confidence"`
	LivenessPassed bool      `json:"liveness_passed"`
	Source         string    `json:"source"`
}
