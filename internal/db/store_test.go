package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminode/caster/internal/model"
)

func newMockStore(t *testing.T) (*pgStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return &pgStore{db: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

var assignmentCols = []string{
	"id", "device_id", "playlist_id", "name", "priority", "enabled",
	"rule_type", "days_of_week", "start_minute", "end_minute", "rule_date", "annual",
	"created_at", "updated_at",
}

var actionCols = []string{
	"id", "device_id", "name", "action", "input", "priority", "enabled",
	"rule_type", "days_of_week", "start_minute", "end_minute", "rule_date", "annual",
	"catch_up_window_minutes", "last_fired_at", "created_at", "updated_at",
}

func TestCreateAssignmentRejectsInvalidRule(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.CreateAssignment(context.Background(), AssignmentParams{
		DeviceID:   1,
		PlaylistID: 2,
		Name:       "broken",
		Enabled:    true,
		Rule:       model.RecurringRule{Days: nil, Start: 9 * 60, End: 17 * 60},
	})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NoError(t, mock.ExpectationsWereMet(), "invalid input never reaches the database")
}

func TestCreateAssignmentPersistsRuleColumns(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO scheduled_assignments").
		WithArgs(1, 2, "weekday mornings", 10, true,
			"recurring", sqlmock.AnyArg(), 9*60, 12*60, sqlmock.AnyArg(), false).
		WillReturnRows(sqlmock.NewRows(assignmentCols).
			AddRow(7, 1, 2, "weekday mornings", 10, true,
				"recurring", []byte("{1,3,5}"), 9*60, 12*60, nil, false,
				now, now))

	created, err := store.CreateAssignment(context.Background(), AssignmentParams{
		DeviceID:   1,
		PlaylistID: 2,
		Name:       "weekday mornings",
		Priority:   10,
		Enabled:    true,
		Rule: model.RecurringRule{
			Days:  []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			Start: 9 * 60,
			End:   12 * 60,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, created.ID)
	rule, ok := created.Rule.(model.RecurringRule)
	require.True(t, ok)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, rule.Days)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAssignmentNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM scheduled_assignments").
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetAssignment(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimActionCommitsCursorWithClaim(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().Truncate(time.Second)
	firedAt := now.Add(-time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM scheduled_actions WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(actionCols).
			AddRow(5, 1, "morning on", "power_on", nil, 0, true,
				"recurring", []byte("{3}"), 8*60, 9*60, nil, false,
				10, nil, now, now))
	mock.ExpectExec("UPDATE scheduled_actions SET last_fired_at").
		WithArgs(5, firedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.ClaimAction(context.Background(), 5, func(fresh model.ScheduledAction) (time.Time, error) {
		assert.Equal(t, model.ActionPowerOn, fresh.Action)
		assert.Nil(t, fresh.LastFiredAt, "claim sees the fresh cursor")
		return firedAt, nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimActionRollsBackOnDispatchFailure(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM scheduled_actions WHERE id = \\$1 FOR UPDATE").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(actionCols).
			AddRow(5, 1, "morning on", "power_on", nil, 0, true,
				"recurring", []byte("{3}"), 8*60, 9*60, nil, false,
				10, nil, now, now))
	mock.ExpectRollback()

	dispatchErr := errors.New("broker down")
	err := store.ClaimAction(context.Background(), 5, func(model.ScheduledAction) (time.Time, error) {
		return time.Time{}, dispatchErr
	})
	assert.ErrorIs(t, err, dispatchErr)
	assert.NoError(t, mock.ExpectationsWereMet(), "no cursor update was issued")
}
