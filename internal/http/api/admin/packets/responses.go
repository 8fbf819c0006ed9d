package packets

import (
	"time"

	"github.com/luminode/caster/internal/model"
	"github.com/luminode/caster/internal/schedule"
)

type TimeRuleResponse struct {
	Type       string  `json:"type"`
	DaysOfWeek []int   `json:"days_of_week,omitempty"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Date       *string `json:"date,omitempty"`
	Annual     bool    `json:"annual,omitempty"`
}

func RuleResponse(rule model.TimeRule) TimeRuleResponse {
	switch r := rule.(type) {
	case model.RecurringRule:
		days := make([]int, 0, len(r.Days))
		for _, d := range r.Days {
			days = append(days, int(d))
		}
		return TimeRuleResponse{
			Type:       string(model.RuleRecurring),
			DaysOfWeek: days,
			StartTime:  r.Start.String(),
			EndTime:    r.End.String(),
		}
	case model.SpecificDateRule:
		date := r.Date.Format("2006-01-02")
		return TimeRuleResponse{
			Type:      string(model.RuleSpecificDate),
			StartTime: r.Start.String(),
			EndTime:   r.End.String(),
			Date:      &date,
			Annual:    r.Annual,
		}
	default:
		return TimeRuleResponse{}
	}
}

type DeviceResponse struct {
	ID                int     `json:"id"`
	HardwareID        *string `json:"hardware_id"`
	Name              string  `json:"name"`
	Location          *string `json:"location"`
	Paired            bool    `json:"paired"`
	CurrentPlaylistID *int    `json:"current_playlist_id"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func NewDeviceResponse(d model.Device) DeviceResponse {
	return DeviceResponse{
		ID:                d.ID,
		HardwareID:        d.HardwareID,
		Name:              d.Name,
		Location:          d.Location,
		Paired:            d.Paired,
		CurrentPlaylistID: d.CurrentPlaylistID,
		CreatedAt:         d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         d.UpdatedAt.Format(time.RFC3339),
	}
}

type PlaylistResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func NewPlaylistResponse(p model.Playlist) PlaylistResponse {
	return PlaylistResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

type AssignmentResponse struct {
	ID         int              `json:"id"`
	DeviceID   int              `json:"device_id"`
	PlaylistID int              `json:"playlist_id"`
	Name       string           `json:"name"`
	Priority   int              `json:"priority"`
	Enabled    bool             `json:"enabled"`
	Rule       TimeRuleResponse `json:"rule"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

func NewAssignmentResponse(a model.ScheduledAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:         a.ID,
		DeviceID:   a.DeviceID,
		PlaylistID: a.PlaylistID,
		Name:       a.Name,
		Priority:   a.Priority,
		Enabled:    a.Enabled,
		Rule:       RuleResponse(a.Rule),
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}

type ActionResponse struct {
	ID                   int              `json:"id"`
	DeviceID             int              `json:"device_id"`
	Name                 string           `json:"name"`
	Action               string           `json:"action"`
	Input                *string          `json:"input,omitempty"`
	Priority             int              `json:"priority"`
	Enabled              bool             `json:"enabled"`
	Rule                 TimeRuleResponse `json:"rule"`
	CatchUpWindowMinutes int              `json:"catch_up_window_minutes"`
	LastFiredAt          *string          `json:"last_fired_at"`
	CreatedAt            string           `json:"created_at"`
	UpdatedAt            string           `json:"updated_at"`
}

func NewActionResponse(a model.ScheduledAction) ActionResponse {
	resp := ActionResponse{
		ID:                   a.ID,
		DeviceID:             a.DeviceID,
		Name:                 a.Name,
		Action:               string(a.Action),
		Input:                a.Input,
		Priority:             a.Priority,
		Enabled:              a.Enabled,
		Rule:                 RuleResponse(a.Rule),
		CatchUpWindowMinutes: a.CatchUpWindowMinutes,
		CreatedAt:            a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            a.UpdatedAt.Format(time.RFC3339),
	}
	if a.LastFiredAt != nil {
		fired := a.LastFiredAt.Format(time.RFC3339)
		resp.LastFiredAt = &fired
	}
	return resp
}

type PreviewResponse struct {
	ActiveSchedule       *AssignmentResponse `json:"active_schedule,omitempty"`
	ConflictingSchedules []schedule.Conflict `json:"conflicting_schedules"`
	DefaultPlaylistID    *int                `json:"default_playlist_id"`
}

func NewPreviewResponse(p schedule.Preview) PreviewResponse {
	resp := PreviewResponse{
		ConflictingSchedules: p.ConflictingSchedules,
		DefaultPlaylistID:    p.DefaultPlaylistID,
	}
	if resp.ConflictingSchedules == nil {
		resp.ConflictingSchedules = []schedule.Conflict{}
	}
	if p.ActiveSchedule != nil {
		active := NewAssignmentResponse(*p.ActiveSchedule)
		resp.ActiveSchedule = &active
	}
	return resp
}
