package schedule

import (
	"sort"
	"time"

	"github.com/luminode/caster/internal/model"
)

// Resolve picks the single assignment that should drive a device at the
// given instant, or nil when none is active. Ordering is effective priority
// descending, then creation order ascending, so repeated calls with the same
// input always pick the same winner.
func Resolve(assignments []model.ScheduledAssignment, at time.Time) *model.ScheduledAssignment {
	active := make([]model.ScheduledAssignment, 0, len(assignments))
	for _, a := range assignments {
		if !a.Enabled || a.Rule == nil {
			continue
		}
		if a.Rule.ActiveAt(at) {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool {
		pi, pj := active[i].EffectivePriority(), active[j].EffectivePriority()
		if pi != pj {
			return pi > pj
		}
		return active[i].ID < active[j].ID
	})
	winner := active[0]
	return &winner
}
