package model

import (
	"fmt"
	"time"
)

// specificDateBoost lifts every specific-date rule above every recurring
// rule, regardless of configured priority.
const specificDateBoost = 1000

// ScheduledAssignment binds a device to a playlist for the windows its rule
// covers. The ID doubles as the creation-order tie-breaker.
type ScheduledAssignment struct {
	ID         int       `json:"id"`
	DeviceID   int       `json:"device_id"`
	PlaylistID int       `json:"playlist_id"`
	Name       string    `json:"name"`
	Priority   int       `json:"priority"`
	Enabled    bool      `json:"enabled"`
	Rule       TimeRule  `json:"rule"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EffectivePriority is the priority used for conflict resolution.
func (a ScheduledAssignment) EffectivePriority() int {
	if a.Rule != nil && a.Rule.Type() == RuleSpecificDate {
		return a.Priority + specificDateBoost
	}
	return a.Priority
}

func (a ScheduledAssignment) Validate() error {
	if a.Priority < 0 || a.Priority > 100 {
		return &ValidationError{Field: "priority", Reason: "must be between 0 and 100"}
	}
	if a.Rule == nil {
		return &ValidationError{Field: "rule", Reason: "a time rule is required"}
	}
	return a.Rule.Validate()
}

// ActionType names the one-shot hardware operations a device understands.
type ActionType string

const (
	ActionPowerOn  ActionType = "power_on"
	ActionPowerOff ActionType = "power_off"
	ActionSetInput ActionType = "set_input"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionPowerOn, ActionPowerOff, ActionSetInput:
		return true
	}
	return false
}

// ScheduledAction binds a device to a one-shot hardware operation. Only the
// rule's start time matters: the action fires once per occurrence, at the
// start boundary, with a catch-up grace window. LastFiredAt is the durable
// cursor that makes firing idempotent per occurrence.
type ScheduledAction struct {
	ID                   int        `json:"id"`
	DeviceID             int        `json:"device_id"`
	Name                 string     `json:"name"`
	Action               ActionType `json:"action"`
	Input                *string    `json:"input,omitempty"`
	Priority             int        `json:"priority"`
	Enabled              bool       `json:"enabled"`
	Rule                 TimeRule   `json:"rule"`
	CatchUpWindowMinutes int        `json:"catch_up_window_minutes"`
	LastFiredAt          *time.Time `json:"last_fired_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (a ScheduledAction) Validate() error {
	if !a.Action.Valid() {
		return &ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", string(a.Action))}
	}
	if a.Action == ActionSetInput && (a.Input == nil || *a.Input == "") {
		return &ValidationError{Field: "input", Reason: "set_input requires an input identifier"}
	}
	if a.Priority < 0 || a.Priority > 100 {
		return &ValidationError{Field: "priority", Reason: "must be between 0 and 100"}
	}
	if a.CatchUpWindowMinutes < 0 {
		return &ValidationError{Field: "catch_up_window_minutes", Reason: "must not be negative"}
	}
	if a.Rule == nil {
		return &ValidationError{Field: "rule", Reason: "a time rule is required"}
	}
	return a.Rule.Validate()
}

// ChangeRecord describes one device's playlist reassignment within a tick.
// It is emitted one-way to the notification layer after the tick commits.
type ChangeRecord struct {
	DeviceID      int       `json:"device_id"`
	DeviceName    string    `json:"device_name"`
	OldPlaylistID *int      `json:"old_playlist_id"`
	NewPlaylistID *int      `json:"new_playlist_id"`
	ScheduleID    *int      `json:"schedule_id"`
	ScheduleName  *string   `json:"schedule_name"`
	ChangedAt     time.Time `json:"changed_at"`

	// routing key for the notification transport, not part of the event
	DeviceHardwareID *string `json:"-"`
}

// EvaluationReport summarizes one full tick across all devices.
type EvaluationReport struct {
	EvaluatedCount      int            `json:"evaluated_count"`
	ActiveScheduleCount int            `json:"active_schedule_count"`
	ChangedCount        int            `json:"changed_count"`
	ErroredCount        int            `json:"errored_count"`
	Changes             []ChangeRecord `json:"changes"`
}
