package model

import "time"

// Student is an enrolled identity. The embedding is written once at
// enrollment and never updated; re-enrollment means a new row.
type Student struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	StudentCode   string    `json:"student_code"`
	GroupID       *int      `json:"group_id,omitempty"`
	Embedding     []float32 `json:"-"`
	FaceThumbPath *string   `json:"face_thumb_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IdentityEmbedding is the read-only view of one enrolled identity the
// matcher scans during recognition.
type IdentityEmbedding struct {
	StudentID int
	GroupID   *int
	Embedding []float32
}
