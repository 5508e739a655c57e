package note

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("note not found")

type Note struct {
	ID           string    `json:"id"`
	ResearcherID string    `json:"researcherId"`
	AsteroidID   string    `json:"asteroidId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	RiskOverride *int      `json:"riskOverride,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SaveRequest creates a note, or updates one when NoteID is set.
type SaveRequest struct {
	NoteID       string `json:"note_id" binding:"omitempty,uuid"`
	AsteroidID   string `json:"asteroid_id" binding:"required,notblank,max=50"`
	Title        string `json:"title" binding:"required,notblank,max=255"`
	Content      string `json:"content" binding:"required,notblank"`
	RiskOverride *int   `json:"risk_override" binding:"omitempty,min=0,max=100"`
}

func NewFromSaveRequest(researcherID string, req SaveRequest) Note {
	now := time.Now().UTC()
	return Note{
		ID:           uuid.NewString(),
		ResearcherID: researcherID,
		AsteroidID:   req.AsteroidID,
		Title:        req.Title,
		Content:      req.Content,
		RiskOverride: req.RiskOverride,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
