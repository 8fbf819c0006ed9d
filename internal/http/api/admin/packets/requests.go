package packets

import (
	"fmt"
	"time"

	"github.com/luminode/caster/internal/model"
)

// TimeRulePayload is the wire shape of both rule variants; ToRule builds
// exactly one of them from the type tag. Field-level validation (weekday
// set, start < end, date presence) happens in the model, so malformed rules
// come back as the store's ValidationError.
type TimeRulePayload struct {
	Type       string  `json:"type" binding:"required,oneof=recurring specific_date"`
	DaysOfWeek []int   `json:"days_of_week"`
	StartTime  string  `json:"start_time" binding:"required"`
	EndTime    string  `json:"end_time" binding:"required"`
	Date       *string `json:"date"`
	Annual     bool    `json:"annual"`
}

func (p TimeRulePayload) ToRule() (model.TimeRule, error) {
	start, err := model.ParseMinuteOfDay(p.StartTime)
	if err != nil {
		return nil, &model.ValidationError{Field: "start_time", Reason: err.Error()}
	}
	end, err := model.ParseMinuteOfDay(p.EndTime)
	if err != nil {
		return nil, &model.ValidationError{Field: "end_time", Reason: err.Error()}
	}

	switch model.RuleType(p.Type) {
	case model.RuleRecurring:
		days := make([]time.Weekday, 0, len(p.DaysOfWeek))
		for _, d := range p.DaysOfWeek {
			days = append(days, time.Weekday(d))
		}
		return model.RecurringRule{Days: days, Start: start, End: end}, nil

	case model.RuleSpecificDate:
		if p.Date == nil {
			return nil, &model.ValidationError{Field: "date", Reason: "a date is required"}
		}
		date, err := time.Parse("2006-01-02", *p.Date)
		if err != nil {
			return nil, &model.ValidationError{Field: "date", Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", *p.Date)}
		}
		return model.SpecificDateRule{Date: date, Start: start, End: end, Annual: p.Annual}, nil

	default:
		return nil, &model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown rule type %q", p.Type)}
	}
}

type CreateDeviceRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location *string `json:"location"`
}

type UpdateDeviceRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

type PairDeviceRequest struct {
	Code string `json:"code" binding:"required"`
}

type CreatePlaylistRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateAssignmentRequest struct {
	DeviceID   int             `json:"device_id" binding:"required"`
	PlaylistID int             `json:"playlist_id" binding:"required"`
	Name       string          `json:"name" binding:"required"`
	Priority   int             `json:"priority"`
	Enabled    *bool           `json:"enabled"`
	Rule       TimeRulePayload `json:"rule" binding:"required"`
}

type UpdateAssignmentRequest struct {
	PlaylistID *int             `json:"playlist_id"`
	Name       *string          `json:"name"`
	Priority   *int             `json:"priority"`
	Enabled    *bool            `json:"enabled"`
	Rule       *TimeRulePayload `json:"rule"`
}

type CreateActionRequest struct {
	DeviceID             int             `json:"device_id" binding:"required"`
	Name                 string          `json:"name" binding:"required"`
	Action               string          `json:"action" binding:"required"`
	Input                *string         `json:"input"`
	Priority             int             `json:"priority"`
	Enabled              *bool           `json:"enabled"`
	CatchUpWindowMinutes int             `json:"catch_up_window_minutes"`
	Rule                 TimeRulePayload `json:"rule" binding:"required"`
}

type UpdateActionRequest struct {
	Name                 *string          `json:"name"`
	Action               *string          `json:"action"`
	Input                *string          `json:"input"`
	Priority             *int             `json:"priority"`
	Enabled              *bool            `json:"enabled"`
	CatchUpWindowMinutes *int             `json:"catch_up_window_minutes"`
	Rule                 *TimeRulePayload `json:"rule"`
}

type PreviewQuery struct {
	Date string `form:"date" binding:"required"` // YYYY-MM-DD
	Time string `form:"time" binding:"required"` // HH:MM
}
