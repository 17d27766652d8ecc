package model

import "time"

// Outcome is the terminal state of one recognition request. Rejections and
// no-match are normal outcomes, not faults.
type Outcome string

const (
	OutcomeRecognized       Outcome = "RECOGNIZED"
	OutcomeNoMatch          Outcome = "NO_MATCH"
	OutcomeRejectedNoFace   Outcome = "REJECTED_NO_FACE"
	OutcomeRejectedLiveness Outcome = "REJECTED_LIVENESS"
)

// RecognizedStudent is the identity slice of a recognition result.
type RecognizedStudent struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	StudentCode string `json:"student_code"`
	GroupID     *int   `json:"group_id,omitempty"`
}

// RecognitionResult is returned for every recognition request, whatever
// the outcome.
type RecognitionResult struct {
	Outcome    Outcome            `json:"outcome"`
	Student    *RecognizedStudent `json:"student,omitempty"`
	Distance   float64            `json:"distance,omitempty"`
	Confidence float64            `json:"confidence,omitempty"`
	SessionID  *int               `json:"session_id,omitempty"`
	EventID    *int64             `json:"event_id,omitempty"`
	// Duplicate is set when the unique attendance policy suppressed a
	// repeat event for the same session and student.
	Duplicate bool `json:"duplicate,omitempty"`
}

// RecognitionEvent is the payload pushed to the worker queue and the live
// feed channel for every terminal outcome.
type RecognitionEvent struct {
	Outcome     Outcome   `json:"outcome"`
	StudentID   *int      `json:"student_id,omitempty"`
	StudentName string    `json:"student_name,omitempty"`
	GroupID     *int      `json:"group_id,omitempty"`
	SessionID   *int      `json:"session_id,omitempty"`
	Confidence  float64   `json:"confidence,omitempty"`
	Source      string    `json:"source"`
	At          time.Time `json:"at"`
}
