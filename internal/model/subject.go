package model

import (
	"time"

	"github.com/google/uuid"
)

// Subject groups questions under a display name with free-form tags.
type Subject struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubjectRequest is the payload for creating or updating a subject.
type SubjectRequest struct {
	Name string   `json:"name" binding:"required,min=1,max=100"`
	Tags []string `json:"tags" binding:"omitempty,dive,max=50"`
}
