package model

import "time"

// Session is the attendance-taking window for one group on one calendar
// date. At most one row exists per (group_id, session_date).
type Session struct {
	ID          int       `json:"id"`
	GroupID     *int      `json:"group_id,omitempty"`
	SessionDate time.Time `json:"session_date"`
	StartTime   string    `json:"start_time"`
	EndTime     *string   `json:"end_time,omitempty"`
}
