package model

import "time"

// Playlist is an opaque content identifier; the scheduler never inspects
// playlist contents.
type Playlist struct {
	ID          int       `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	Description *string   `db:"description"  json:"description,omitempty"`
	CreatedBy   int       `db:"created_by"   json:"created_by"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}
