package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

const assignmentColumns = `id, device_id, playlist_id, name, priority, enabled,
	rule_type, days_of_week, start_minute, end_minute, rule_date, annual,
	created_at, updated_at`

type assignmentRow struct {
	ID          int           `db:"id"`
	DeviceID    int           `db:"device_id"`
	PlaylistID  int           `db:"playlist_id"`
	Name        string        `db:"name"`
	Priority    int           `db:"priority"`
	Enabled     bool          `db:"enabled"`
	RuleType    string        `db:"rule_type"`
	DaysOfWeek  pq.Int64Array `db:"days_of_week"`
	StartMinute int           `db:"start_minute"`
	EndMinute   int           `db:"end_minute"`
	RuleDate    sql.NullTime  `db:"rule_date"`
	Annual      bool          `db:"annual"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func (r assignmentRow) toModel() (model.ScheduledAssignment, error) {
	rule, err := buildRule(r.RuleType, r.DaysOfWeek, r.StartMinute, r.EndMinute, r.RuleDate, r.Annual)
	if err != nil {
		return model.ScheduledAssignment{}, err
	}
	return model.ScheduledAssignment{
		ID:         r.ID,
		DeviceID:   r.DeviceID,
		PlaylistID: r.PlaylistID,
		Name:       r.Name,
		Priority:   r.Priority,
		Enabled:    r.Enabled,
		Rule:       rule,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (s *pgStore) CreateAssignment(ctx context.Context, params AssignmentParams) (model.ScheduledAssignment, error) {
	candidate := model.ScheduledAssignment{
		DeviceID:   params.DeviceID,
		PlaylistID: params.PlaylistID,
		Name:       params.Name,
		Priority:   params.Priority,
		Enabled:    params.Enabled,
		Rule:       params.Rule,
	}
	if err := candidate.Validate(); err != nil {
		return model.ScheduledAssignment{}, err
	}

	ruleType, days, start, end, date, annual, err := ruleColumns(params.Rule)
	if err != nil {
		return model.ScheduledAssignment{}, err
	}

	var row assignmentRow
	q := `
	INSERT INTO scheduled_assignments
	  (device_id, playlist_id, name, priority, enabled,
	   rule_type, days_of_week, start_minute, end_minute, rule_date, annual,
	   created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
	RETURNING ` + assignmentColumns + `;`
	err = s.db.GetContext(ctx, &row, q,
		params.DeviceID, params.PlaylistID, params.Name, params.Priority, params.Enabled,
		ruleType, days, start, end, date, annual)
	if err != nil {
		log.Error().Err(err).Msg("CreateAssignment failed")
		return model.ScheduledAssignment{}, err
	}
	return row.toModel()
}

func (s *pgStore) GetAssignment(ctx context.Context, id int) (model.ScheduledAssignment, error) {
	return getAssignment(ctx, s.db, id)
}

func getAssignment(ctx context.Context, q sqlx.QueryerContext, id int) (model.ScheduledAssignment, error) {
	var row assignmentRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT `+assignmentColumns+` FROM scheduled_assignments WHERE id = $1`, id)
	if err != nil {
		return model.ScheduledAssignment{}, notFound(err)
	}
	return row.toModel()
}

func (s *pgStore) ListAssignments(ctx context.Context, deviceID *int) ([]model.ScheduledAssignment, error) {
	var rows []assignmentRow
	var err error
	if deviceID != nil {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT `+assignmentColumns+` FROM scheduled_assignments WHERE device_id = $1 ORDER BY id`, *deviceID)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT `+assignmentColumns+` FROM scheduled_assignments ORDER BY id`)
	}
	if err != nil {
		log.Error().Err(err).Msg("ListAssignments failed")
		return nil, err
	}
	return assignmentsFromRows(rows)
}

func (s *pgStore) ListDeviceAssignments(ctx context.Context, deviceID int) ([]model.ScheduledAssignment, error) {
	return s.ListAssignments(ctx, &deviceID)
}

func assignmentsFromRows(rows []assignmentRow) ([]model.ScheduledAssignment, error) {
	out := make([]model.ScheduledAssignment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *pgStore) UpdateAssignment(ctx context.Context, id int, update AssignmentUpdate) (model.ScheduledAssignment, error) {
	existing, err := s.GetAssignment(ctx, id)
	if err != nil {
		return model.ScheduledAssignment{}, err
	}

	if update.PlaylistID != nil {
		existing.PlaylistID = *update.PlaylistID
	}
	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Priority != nil {
		existing.Priority = *update.Priority
	}
	if update.Enabled != nil {
		existing.Enabled = *update.Enabled
	}
	if update.Rule != nil {
		existing.Rule = update.Rule
	}
	if err := existing.Validate(); err != nil {
		return model.ScheduledAssignment{}, err
	}

	ruleType, days, start, end, date, annual, err := ruleColumns(existing.Rule)
	if err != nil {
		return model.ScheduledAssignment{}, err
	}

	var row assignmentRow
	q := `
	UPDATE scheduled_assignments
	SET playlist_id = $2, name = $3, priority = $4, enabled = $5,
	    rule_type = $6, days_of_week = $7, start_minute = $8, end_minute = $9,
	    rule_date = $10, annual = $11, updated_at = now()
	WHERE id = $1
	RETURNING ` + assignmentColumns + `;`
	err = s.db.GetContext(ctx, &row, q, id,
		existing.PlaylistID, existing.Name, existing.Priority, existing.Enabled,
		ruleType, days, start, end, date, annual)
	if err != nil {
		log.Error().Err(err).Int("assignment_id", id).Msg("UpdateAssignment failed")
		return model.ScheduledAssignment{}, notFound(err)
	}
	return row.toModel()
}

func (s *pgStore) DeleteAssignment(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_assignments WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("assignment_id", id).Msg("DeleteAssignment failed")
	}
	return err
}
