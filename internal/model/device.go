package model

import "time"

// Device represents a display endpoint in the system.
type Device struct {
	ID                int       `db:"id"                  json:"id"`
	HardwareID        *string   `db:"hardware_id"         json:"hardware_id"`
	Name              string    `db:"name"                json:"name"`
	Location          *string   `db:"location"            json:"location"`
	Paired            bool      `db:"paired"              json:"paired"`
	CurrentPlaylistID *int      `db:"current_playlist_id" json:"current_playlist_id"`
	CreatedBy         int       `db:"created_by"          json:"created_by"`
	CreatedAt         time.Time `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"          json:"updated_at"`
}

// DeviceCommand is a one-shot hardware instruction pushed to a device.
type DeviceCommand struct {
	DeviceID   int        `json:"device_id"`
	HardwareID string     `json:"-"`
	Action     ActionType `json:"action"`
	Input      *string    `json:"input,omitempty"`
	IssuedAt   time.Time  `json:"issued_at"`
}
