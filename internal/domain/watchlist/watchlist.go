package watchlist

import "time"

type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	AsteroidID   string    `json:"asteroidId"`
	AsteroidName string    `json:"asteroidName"`
	Notes        *string   `json:"notes,omitempty"`
	AddedAt      time.Time `json:"addedAt"`
}

// EntryWithNotes is the researcher view of an entry.
type EntryWithNotes struct {
	Entry
	NotesCount int `json:"notesCount"`
}

type AddRequest struct {
	AsteroidID   string  `json:"asteroid_id" binding:"required,notblank,max=50"`
	AsteroidName string  `json:"asteroid_name" binding:"required,notblank,max=255"`
	Notes        *string `json:"notes" binding:"omitempty,max=2000"`
}
