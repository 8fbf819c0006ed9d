package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
	"github.com/luminode/caster/internal/schedule"
)

const actionColumns = `id, device_id, name, action, input, priority, enabled,
	rule_type, days_of_week, start_minute, end_minute, rule_date, annual,
	catch_up_window_minutes, last_fired_at, created_at, updated_at`

type actionRow struct {
	ID          int            `db:"id"`
	DeviceID    int            `db:"device_id"`
	Name        string         `db:"name"`
	Action      string         `db:"action"`
	Input       sql.NullString `db:"input"`
	Priority    int            `db:"priority"`
	Enabled     bool           `db:"enabled"`
	RuleType    string         `db:"rule_type"`
	DaysOfWeek  pq.Int64Array  `db:"days_of_week"`
	StartMinute int            `db:"start_minute"`
	EndMinute   int            `db:"end_minute"`
	RuleDate    sql.NullTime   `db:"rule_date"`
	Annual      bool           `db:"annual"`
	CatchUp     int            `db:"catch_up_window_minutes"`
	LastFiredAt sql.NullTime   `db:"last_fired_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r actionRow) toModel() (model.ScheduledAction, error) {
	rule, err := buildRule(r.RuleType, r.DaysOfWeek, r.StartMinute, r.EndMinute, r.RuleDate, r.Annual)
	if err != nil {
		return model.ScheduledAction{}, err
	}
	a := model.ScheduledAction{
		ID:                   r.ID,
		DeviceID:             r.DeviceID,
		Name:                 r.Name,
		Action:               model.ActionType(r.Action),
		Priority:             r.Priority,
		Enabled:              r.Enabled,
		Rule:                 rule,
		CatchUpWindowMinutes: r.CatchUp,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.Input.Valid {
		input := r.Input.String
		a.Input = &input
	}
	if r.LastFiredAt.Valid {
		fired := r.LastFiredAt.Time
		a.LastFiredAt = &fired
	}
	return a, nil
}

func (s *pgStore) CreateAction(ctx context.Context, params ActionParams) (model.ScheduledAction, error) {
	candidate := model.ScheduledAction{
		DeviceID:             params.DeviceID,
		Name:                 params.Name,
		Action:               params.Action,
		Input:                params.Input,
		Priority:             params.Priority,
		Enabled:              params.Enabled,
		Rule:                 params.Rule,
		CatchUpWindowMinutes: params.CatchUpWindowMinutes,
	}
	if err := candidate.Validate(); err != nil {
		return model.ScheduledAction{}, err
	}

	ruleType, days, start, end, date, annual, err := ruleColumns(params.Rule)
	if err != nil {
		return model.ScheduledAction{}, err
	}

	var row actionRow
	q := `
	INSERT INTO scheduled_actions
	  (device_id, name, action, input, priority, enabled,
	   rule_type, days_of_week, start_minute, end_minute, rule_date, annual,
	   catch_up_window_minutes, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
	RETURNING ` + actionColumns + `;`
	err = s.db.GetContext(ctx, &row, q,
		params.DeviceID, params.Name, string(params.Action), params.Input,
		params.Priority, params.Enabled,
		ruleType, days, start, end, date, annual, params.CatchUpWindowMinutes)
	if err != nil {
		log.Error().Err(err).Msg("CreateAction failed")
		return model.ScheduledAction{}, err
	}
	return row.toModel()
}

func (s *pgStore) GetAction(ctx context.Context, id int) (model.ScheduledAction, error) {
	var row actionRow
	err := s.db.GetContext(ctx, &row, `SELECT `+actionColumns+` FROM scheduled_actions WHERE id = $1`, id)
	if err != nil {
		return model.ScheduledAction{}, notFound(err)
	}
	return row.toModel()
}

func (s *pgStore) ListActions(ctx context.Context, deviceID *int) ([]model.ScheduledAction, error) {
	var rows []actionRow
	var err error
	if deviceID != nil {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT `+actionColumns+` FROM scheduled_actions WHERE device_id = $1 ORDER BY id`, *deviceID)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT `+actionColumns+` FROM scheduled_actions ORDER BY id`)
	}
	if err != nil {
		log.Error().Err(err).Msg("ListActions failed")
		return nil, err
	}
	out := make([]model.ScheduledAction, 0, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *pgStore) ListEnabledActions(ctx context.Context) ([]schedule.ActionWithDevice, error) {
	type joinedRow struct {
		actionRow
		DevHardwareID *string   `db:"dev_hardware_id"`
		DevName       string    `db:"dev_name"`
		DevLocation   *string   `db:"dev_location"`
		DevPaired     bool      `db:"dev_paired"`
		DevPlaylistID *int      `db:"dev_current_playlist_id"`
		DevCreatedBy  int       `db:"dev_created_by"`
		DevCreatedAt  time.Time `db:"dev_created_at"`
		DevUpdatedAt  time.Time `db:"dev_updated_at"`
	}
	var rows []joinedRow
	const q = `
	SELECT a.id, a.device_id, a.name, a.action, a.input, a.priority, a.enabled,
	       a.rule_type, a.days_of_week, a.start_minute, a.end_minute, a.rule_date, a.annual,
	       a.catch_up_window_minutes, a.last_fired_at, a.created_at, a.updated_at,
	       d.hardware_id AS dev_hardware_id, d.name AS dev_name, d.location AS dev_location,
	       d.paired AS dev_paired, d.current_playlist_id AS dev_current_playlist_id,
	       d.created_by AS dev_created_by, d.created_at AS dev_created_at, d.updated_at AS dev_updated_at
	  FROM scheduled_actions a
	  JOIN devices d ON d.id = a.device_id
	 WHERE a.enabled = TRUE
	 ORDER BY a.id;`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		log.Error().Err(err).Msg("ListEnabledActions failed")
		return nil, err
	}

	out := make([]schedule.ActionWithDevice, 0, len(rows))
	for _, r := range rows {
		action, err := r.actionRow.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, schedule.ActionWithDevice{
			Action: action,
			Device: model.Device{
				ID:                r.actionRow.DeviceID,
				HardwareID:        r.DevHardwareID,
				Name:              r.DevName,
				Location:          r.DevLocation,
				Paired:            r.DevPaired,
				CurrentPlaylistID: r.DevPlaylistID,
				CreatedBy:         r.DevCreatedBy,
				CreatedAt:         r.DevCreatedAt,
				UpdatedAt:         r.DevUpdatedAt,
			},
		})
	}
	return out, nil
}

func (s *pgStore) UpdateAction(ctx context.Context, id int, update ActionUpdate) (model.ScheduledAction, error) {
	existing, err := s.GetAction(ctx, id)
	if err != nil {
		return model.ScheduledAction{}, err
	}

	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Action != nil {
		existing.Action = *update.Action
	}
	if update.Input != nil {
		existing.Input = update.Input
	}
	if update.Priority != nil {
		existing.Priority = *update.Priority
	}
	if update.Enabled != nil {
		existing.Enabled = *update.Enabled
	}
	if update.CatchUpWindowMinutes != nil {
		existing.CatchUpWindowMinutes = *update.CatchUpWindowMinutes
	}
	if update.Rule != nil {
		existing.Rule = update.Rule
	}
	if err := existing.Validate(); err != nil {
		return model.ScheduledAction{}, err
	}

	ruleType, days, start, end, date, annual, err := ruleColumns(existing.Rule)
	if err != nil {
		return model.ScheduledAction{}, err
	}

	var row actionRow
	q := `
	UPDATE scheduled_actions
	SET name = $2, action = $3, input = $4, priority = $5, enabled = $6,
	    rule_type = $7, days_of_week = $8, start_minute = $9, end_minute = $10,
	    rule_date = $11, annual = $12, catch_up_window_minutes = $13, updated_at = now()
	WHERE id = $1
	RETURNING ` + actionColumns + `;`
	err = s.db.GetContext(ctx, &row, q, id,
		existing.Name, string(existing.Action), existing.Input,
		existing.Priority, existing.Enabled,
		ruleType, days, start, end, date, annual, existing.CatchUpWindowMinutes)
	if err != nil {
		log.Error().Err(err).Int("action_id", id).Msg("UpdateAction failed")
		return model.ScheduledAction{}, notFound(err)
	}
	return row.toModel()
}

func (s *pgStore) DeleteAction(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_actions WHERE id = $1`, id)
	if err != nil {
		log.Error().Err(err).Int("action_id", id).Msg("DeleteAction failed")
	}
	return err
}

// ClaimAction serializes firing decisions for one action. The row lock
// blocks a concurrent tick from reading the stale cursor; the cursor write
// commits together with whatever fn did, so a failed dispatch never
// advances last_fired_at.
func (s *pgStore) ClaimAction(ctx context.Context, id int, fn func(model.ScheduledAction) (time.Time, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var row actionRow
	err = tx.GetContext(ctx, &row,
		`SELECT `+actionColumns+` FROM scheduled_actions WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return notFound(err)
	}
	action, err := row.toModel()
	if err != nil {
		return err
	}

	firedAt, err := fn(action)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE scheduled_actions SET last_fired_at = $2, updated_at = now() WHERE id = $1`,
		id, firedAt)
	if err != nil {
		log.Error().Err(err).Int("action_id", id).Msg("ClaimAction cursor update failed")
		return err
	}
	return tx.Commit()
}
