package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/luminode/caster/internal/model"
)

// ruleColumns flattens a TimeRule variant into the nullable per-variant
// columns of the schedule tables. The rule_type tag plus a table CHECK keep
// the two shapes mutually exclusive at rest.
func ruleColumns(rule model.TimeRule) (ruleType string, days pq.Int64Array, start, end int, date sql.NullTime, annual bool, err error) {
	switch r := rule.(type) {
	case model.RecurringRule:
		days = make(pq.Int64Array, 0, len(r.Days))
		for _, d := range r.Days {
			days = append(days, int64(d))
		}
		return string(model.RuleRecurring), days, int(r.Start), int(r.End), sql.NullTime{}, false, nil
	case model.SpecificDateRule:
		return string(model.RuleSpecificDate), nil, int(r.Start), int(r.End),
			sql.NullTime{Time: r.Date, Valid: true}, r.Annual, nil
	default:
		return "", nil, 0, 0, sql.NullTime{}, false, fmt.Errorf("unknown rule type %T", rule)
	}
}

// buildRule materializes exactly one TimeRule variant from stored columns.
func buildRule(ruleType string, days pq.Int64Array, start, end int, date sql.NullTime, annual bool) (model.TimeRule, error) {
	switch model.RuleType(ruleType) {
	case model.RuleRecurring:
		weekdays := make([]time.Weekday, 0, len(days))
		for _, d := range days {
			weekdays = append(weekdays, time.Weekday(d))
		}
		return model.RecurringRule{
			Days:  weekdays,
			Start: model.MinuteOfDay(start),
			End:   model.MinuteOfDay(end),
		}, nil
	case model.RuleSpecificDate:
		if !date.Valid {
			return nil, fmt.Errorf("specific_date rule without a date")
		}
		return model.SpecificDateRule{
			Date:   date.Time,
			Start:  model.MinuteOfDay(start),
			End:    model.MinuteOfDay(end),
			Annual: annual,
		}, nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", ruleType)
	}
}
