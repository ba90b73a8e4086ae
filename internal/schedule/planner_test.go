package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Remindus/internal/domain/rule"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func planner(now time.Time) *Planner {
	return NewPlanner(15*time.Minute, fixedClock{t: now})
}

func eightAM() rule.TimeOfDay {
	return rule.TimeOfDay{Hour: 8}
}

func TestPlanOnce(t *testing.T) {
	r := &rule.Rule{Frequency: rule.FreqOnce, TimeOfDay: eightAM()}

	t.Run("future today", func(t *testing.T) {
		now := at("2024-01-01T06:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.NotNil(t, next)
		require.Equal(t, at("2024-01-01T07:45:00Z"), *next)
	})

	t.Run("already passed today", func(t *testing.T) {
		now := at("2024-01-01T09:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Nil(t, next)
	})

	t.Run("already fired", func(t *testing.T) {
		now := at("2024-01-01T06:00:00Z")
		last := at("2023-12-31T07:45:00Z")
		next, err := planner(now).PlanNextRun(r, &last)
		require.NoError(t, err)
		require.Nil(t, next)
	})
}

func TestPlanDaily(t *testing.T) {
	r := &rule.Rule{Frequency: rule.FreqDaily, TimeOfDay: eightAM()}

	t.Run("first run before fire time", func(t *testing.T) {
		now := at("2024-01-01T06:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-01T07:45:00Z"), *next)
	})

	t.Run("first run after fire time rolls to tomorrow", func(t *testing.T) {
		now := at("2024-01-01T09:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-02T07:45:00Z"), *next)
	})

	t.Run("advances one day from last run", func(t *testing.T) {
		now := at("2024-01-01T07:46:00Z")
		last := at("2024-01-01T07:45:00Z")
		next, err := planner(now).PlanNextRun(r, &last)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-02T07:45:00Z"), *next)
	})
}

func TestPlanEveryNDays(t *testing.T) {
	n := 3
	r := &rule.Rule{Frequency: rule.FreqEveryNDays, TimeOfDay: eightAM(), EveryN: &n}

	t.Run("exactly n days from last run", func(t *testing.T) {
		now := at("2024-01-01T08:00:00Z")
		last := at("2024-01-01T07:45:00Z")
		next, err := planner(now).PlanNextRun(r, &last)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-04T07:45:00Z"), *next)
	})

	t.Run("first run today when fire time still ahead", func(t *testing.T) {
		now := at("2024-01-01T06:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-01T07:45:00Z"), *next)
	})

	t.Run("first run jumps n days when fire time passed", func(t *testing.T) {
		now := at("2024-01-01T09:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-04T07:45:00Z"), *next)
	})

	t.Run("missing interval is a configuration error", func(t *testing.T) {
		bad := &rule.Rule{Frequency: rule.FreqEveryNDays, TimeOfDay: eightAM()}
		_, err := planner(at("2024-01-01T06:00:00Z")).PlanNextRun(bad, nil)
		require.ErrorIs(t, err, ErrConfiguration)
		require.True(t, IsPlanningError(err))
	})
}

func TestPlanWeekdayOnly(t *testing.T) {
	r := &rule.Rule{Frequency: rule.FreqWeekdayOnly, TimeOfDay: eightAM()}

	t.Run("friday rolls over to monday", func(t *testing.T) {
		// 2024-01-05 is a Friday.
		now := at("2024-01-05T08:00:00Z")
		last := at("2024-01-05T07:45:00Z")
		next, err := planner(now).PlanNextRun(r, &last)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-08T07:45:00Z"), *next)
	})

	t.Run("saturday first run lands on monday", func(t *testing.T) {
		now := at("2024-01-06T06:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-08T07:45:00Z"), *next)
	})

	t.Run("midweek advances one day", func(t *testing.T) {
		// 2024-01-02 is a Tuesday.
		now := at("2024-01-02T08:00:00Z")
		last := at("2024-01-02T07:45:00Z")
		next, err := planner(now).PlanNextRun(r, &last)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-03T07:45:00Z"), *next)
	})
}

func TestPlanCustom(t *testing.T) {
	saturdayOnly := []int16{0, 0, 0, 0, 0, 1, 0}

	t.Run("monday scans forward to saturday", func(t *testing.T) {
		// 2024-01-01 is a Monday.
		r := &rule.Rule{Frequency: rule.FreqCustom, TimeOfDay: eightAM(), Weekdays: saturdayOnly}
		now := at("2024-01-01T09:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-06T07:45:00Z"), *next)
	})

	t.Run("same day counts when fire time ahead", func(t *testing.T) {
		mondayOnly := []int16{1, 0, 0, 0, 0, 0, 0}
		r := &rule.Rule{Frequency: rule.FreqCustom, TimeOfDay: eightAM(), Weekdays: mondayOnly}
		now := at("2024-01-01T06:00:00Z")
		next, err := planner(now).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Equal(t, at("2024-01-01T07:45:00Z"), *next)
	})

	t.Run("empty mask yields no occurrence", func(t *testing.T) {
		r := &rule.Rule{Frequency: rule.FreqCustom, TimeOfDay: eightAM(), Weekdays: []int16{0, 0, 0, 0, 0, 0, 0}}
		next, err := planner(at("2024-01-01T06:00:00Z")).PlanNextRun(r, nil)
		require.NoError(t, err)
		require.Nil(t, next)
	})

	t.Run("short mask is a configuration error", func(t *testing.T) {
		r := &rule.Rule{Frequency: rule.FreqCustom, TimeOfDay: eightAM(), Weekdays: []int16{1, 0, 1}}
		_, err := planner(at("2024-01-01T06:00:00Z")).PlanNextRun(r, nil)
		require.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("mask values outside binary are rejected", func(t *testing.T) {
		r := &rule.Rule{Frequency: rule.FreqCustom, TimeOfDay: eightAM(), Weekdays: []int16{0, 0, 2, 0, 0, 0, 0}}
		_, err := planner(at("2024-01-01T06:00:00Z")).PlanNextRun(r, nil)
		require.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestPlanUnknownFrequency(t *testing.T) {
	r := &rule.Rule{Frequency: rule.Frequency("MONTHLY"), TimeOfDay: eightAM()}
	_, err := planner(at("2024-01-01T06:00:00Z")).PlanNextRun(r, nil)
	require.ErrorIs(t, err, ErrInvalidFrequency)
	require.True(t, IsPlanningError(err))
}

func TestExecutionTimeAppliesOffset(t *testing.T) {
	p := NewPlanner(30*time.Minute, fixedClock{t: at("2024-01-01T00:00:00Z")})
	got := p.executionTime(at("2024-06-15T23:59:59Z"), rule.TimeOfDay{Hour: 12, Minute: 30})
	require.Equal(t, at("2024-06-15T12:00:00Z"), got)
}
