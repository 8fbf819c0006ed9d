package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

// ErrSkipFiring tells ClaimAction to roll back without treating the claim as
// a failure; another evaluation already fired this occurrence.
var ErrSkipFiring = errors.New("action occurrence already fired")

// ActionReport summarizes one firing pass over all enabled actions.
type ActionReport struct {
	EvaluatedCount int `json:"evaluated_count"`
	FiredCount     int `json:"fired_count"`
	SkippedCount   int `json:"skipped_count"`
	ErroredCount   int `json:"errored_count"`
}

// ShouldExecute decides whether an action is due right now. Actions fire
// once at the rule's start boundary, not over the whole interval, and stay
// fireable for the catch-up window so a delayed or recovered scheduler does
// not miss the occurrence. The LastFiredAt cursor suppresses repeats within
// the same occurrence.
func ShouldExecute(action model.ScheduledAction, now time.Time) bool {
	if !action.Enabled || action.Rule == nil {
		return false
	}

	trigger, ok := action.Rule.TriggerAt(now)
	if !ok {
		return false
	}

	elapsed := now.Sub(trigger)
	if elapsed < 0 || elapsed > time.Duration(action.CatchUpWindowMinutes)*time.Minute {
		return false
	}

	if lf := action.LastFiredAt; lf != nil {
		at := lf.In(now.Location())
		if sameDate(at, trigger) && !at.Before(trigger) {
			return false
		}
	}
	return true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FireDueActions evaluates every enabled action once and dispatches those
// that are due. Each firing claims the action row under a lock, re-checks
// against the fresh cursor, dispatches, and advances last_fired_at in the
// same transaction; a failed dispatch rolls back so the next pass retries
// within the catch-up window.
func (e *Engine) FireDueActions(ctx context.Context, now time.Time) (ActionReport, error) {
	var report ActionReport

	actions, err := e.store.ListEnabledActions(ctx)
	if err != nil {
		return report, err
	}

	for _, ad := range actions {
		report.EvaluatedCount++
		if !ShouldExecute(ad.Action, now) {
			continue
		}

		device := ad.Device
		err := e.store.ClaimAction(ctx, ad.Action.ID, func(fresh model.ScheduledAction) (time.Time, error) {
			if !ShouldExecute(fresh, now) {
				return time.Time{}, ErrSkipFiring
			}
			cmd := model.DeviceCommand{
				DeviceID: device.ID,
				Action:   fresh.Action,
				Input:    fresh.Input,
				IssuedAt: now,
			}
			if device.HardwareID != nil {
				cmd.HardwareID = *device.HardwareID
			}
			if err := e.notifier.DispatchAction(ctx, cmd); err != nil {
				return time.Time{}, err
			}
			return now, nil
		})
		switch {
		case err == nil:
			report.FiredCount++
			log.Info().
				Int("action_id", ad.Action.ID).
				Int("device_id", device.ID).
				Str("action", string(ad.Action.Action)).
				Time("fired_at", now).
				Msg("scheduled action fired")
		case errors.Is(err, ErrSkipFiring):
			report.SkippedCount++
		default:
			report.ErroredCount++
			log.Error().Err(err).
				Int("action_id", ad.Action.ID).
				Int("device_id", device.ID).
				Msg("scheduled action dispatch failed")
		}
	}
	return report, nil
}
