package alert

import "time"

type Alert struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	AsteroidID *string   `json:"asteroidId,omitempty"`
	Message    string    `json:"message"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}
