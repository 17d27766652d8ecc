package model

import "time"

// Group represents a class or cohort that students and sessions belong to.
type Group struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateGroupRequest is the payload for creating or updating a group.
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
	Code string `json:"code" binding:"required,min=1,max=20"`
}
