package model

import "time"

// Event is a community event listed on the site (`events` table).
// Deleting an event only clears Active.
type Event struct {
    ID          uint64    `json:"id"`
    Title       string    `json:"title"`
    Date        string    `json:"date"` // YYYY-MM-DD
    Venue       *string   `json:"venue"`
    Description *string   `json:"description"`
    Link        *string   `json:"link"`
    Source      string    `json:"source"`
    Tags        *string   `json:"tags"`
    Active      bool      `json:"active"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}
