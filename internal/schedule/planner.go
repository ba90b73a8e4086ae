package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Remindus/internal/domain/rule"
)

var (
	// ErrConfiguration marks malformed recurrence parameters on a single rule.
	ErrConfiguration = errors.New("invalid recurrence configuration")
	// ErrInvalidFrequency marks an unrecognized frequency tag. This is a data
	// integrity problem, not user input.
	ErrInvalidFrequency = errors.New("unsupported notification frequency")
)

// customScanWindow bounds how many days ahead the CUSTOM strategy looks for
// a flagged weekday before giving up.
const customScanWindow = 15

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type strategy func(p *Planner, r *rule.Rule, lastRun *time.Time, now time.Time) (*time.Time, error)

// strategies is built once and shared read-only across all callers.
var strategies = map[rule.Frequency]strategy{
	rule.FreqOnce:        (*Planner).planOnce,
	rule.FreqDaily:       (*Planner).planDaily,
	rule.FreqEveryNDays:  (*Planner).planEveryNDays,
	rule.FreqWeekdayOnly: (*Planner).planWeekdayOnly,
	rule.FreqCustom:      (*Planner).planCustom,
}

// Planner derives the next moment a rule should fire. Offset is the lead
// time subtracted from the nominal time of day so the reminder lands before
// the routine is due.
type Planner struct {
	Offset time.Duration
	Clock  Clock
}

func NewPlanner(offset time.Duration, clock Clock) *Planner {
	if clock == nil {
		clock = systemClock{}
	}
	return &Planner{Offset: offset, Clock: clock}
}

// PlanNextRun returns the next occurrence strictly after now, or nil when the
// rule has no further occurrences.
func (p *Planner) PlanNextRun(r *rule.Rule, lastRun *time.Time) (*time.Time, error) {
	s, ok := strategies[r.Frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, string(r.Frequency))
	}
	return s(p, r, lastRun, p.Clock.Now())
}

// executionTime combines the date part of d with the rule's time of day and
// applies the lead-time offset.
func (p *Planner) executionTime(d time.Time, tod rule.TimeOfDay) time.Time {
	return tod.On(d.UTC()).Add(-p.Offset)
}

func (p *Planner) planOnce(r *rule.Rule, lastRun *time.Time, now time.Time) (*time.Time, error) {
	if lastRun != nil {
		return nil, nil
	}
	candidate := p.executionTime(now, r.TimeOfDay)
	if !candidate.After(now) {
		return nil, nil
	}
	return &candidate, nil
}

func (p *Planner) planDaily(r *rule.Rule, lastRun *time.Time, now time.Time) (*time.Time, error) {
	base := now
	if lastRun != nil {
		base = *lastRun
	}
	candidate := p.executionTime(base, r.TimeOfDay)
	for !candidate.After(now) {
		candidate = p.executionTime(candidate.AddDate(0, 0, 1), r.TimeOfDay)
	}
	return &candidate, nil
}

func (p *Planner) planEveryNDays(r *rule.Rule, lastRun *time.Time, now time.Time) (*time.Time, error) {
	if r.EveryN == nil || *r.EveryN < 1 {
		return nil, fmt.Errorf("%w: EVERY_N_DAYS requires a positive interval", ErrConfiguration)
	}
	n := *r.EveryN

	if lastRun == nil {
		candidate := p.executionTime(now, r.TimeOfDay)
		if !candidate.After(now) {
			candidate = p.executionTime(now.AddDate(0, 0, n), r.TimeOfDay)
		}
		return &candidate, nil
	}

	// Driven by lastRun the cadence stays exactly n days apart, measured
	// against the intended fire time rather than actual delivery.
	candidate := p.executionTime(lastRun.AddDate(0, 0, n), r.TimeOfDay)
	return &candidate, nil
}

func (p *Planner) planWeekdayOnly(r *rule.Rule, lastRun *time.Time, now time.Time) (*time.Time, error) {
	base := now
	if lastRun != nil {
		base = *lastRun
	}
	candidate := p.executionTime(base, r.TimeOfDay)
	for !candidate.After(now) || mondayIndex(candidate) >= 5 {
		candidate = p.executionTime(candidate.AddDate(0, 0, 1), r.TimeOfDay)
	}
	return &candidate, nil
}

func (p *Planner) planCustom(r *rule.Rule, lastRun *time.Time, now time.Time) (*time.Time, error) {
	if len(r.Weekdays) != 7 {
		return nil, fmt.Errorf("%w: CUSTOM requires a 7-day binary mask", ErrConfiguration)
	}
	for _, d := range r.Weekdays {
		if d != 0 && d != 1 {
			return nil, fmt.Errorf("%w: CUSTOM weekday mask must contain only 0 or 1", ErrConfiguration)
		}
	}

	base := now
	if lastRun != nil {
		base = *lastRun
	}
	for ahead := 0; ahead < customScanWindow; ahead++ {
		candidate := p.executionTime(base.AddDate(0, 0, ahead), r.TimeOfDay)
		if !candidate.After(now) {
			continue
		}
		if r.Weekdays[mondayIndex(candidate)] == 1 {
			return &candidate, nil
		}
	}
	return nil, nil
}

// IsPlanningError reports whether err is a per-rule planning failure.
// Callers skip the offending rule instead of aborting the whole batch.
func IsPlanningError(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInvalidFrequency)
}

// mondayIndex maps time.Weekday (Sunday=0) onto the Monday=0..Sunday=6
// indexing the weekday mask uses.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
