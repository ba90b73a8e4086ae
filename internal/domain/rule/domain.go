package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Frequency string

const (
	FreqOnce        Frequency = "ONCE"
	FreqDaily       Frequency = "DAILY"
	FreqEveryNDays  Frequency = "EVERY_N_DAYS"
	FreqWeekdayOnly Frequency = "WEEKDAY_ONLY"
	FreqCustom      Frequency = "CUSTOM"
)

// TimeOfDay is the nominal wall-clock moment a reminder targets, UTC.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04:05"
	if len(strings.TrimSpace(s)) == 5 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On anchors the time of day to the date of d, in UTC.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, time.UTC)
}

type Rule struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	TimeOfDay TimeOfDay  `json:"time_of_day"`
	Frequency Frequency  `json:"frequency"`
	EveryN    *int       `json:"every_n,omitempty"`
	Weekdays  []int16    `json:"weekdays,omitempty"`
	Enabled   bool       `json:"enabled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FieldError names one field that broke the variant invariant.
type FieldError struct {
	Field   string
	Message string
}

// MismatchError reports a rule whose populated optional fields do not match
// its frequency. The set of populated fields is fully determined by the
// frequency; any other combination is rejected.
type MismatchError struct {
	Fields []FieldError
}

func (e *MismatchError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "rule requirement mismatch: " + strings.Join(parts, "; ")
}

func (r *Rule) Validate() error {
	var fields []FieldError

	switch r.Frequency {
	case FreqEveryNDays:
		if r.EveryN == nil {
			fields = append(fields, FieldError{"every_n", "required when frequency is EVERY_N_DAYS"})
		} else if *r.EveryN < 1 {
			fields = append(fields, FieldError{"every_n", "must be >= 1"})
		}
		if r.Weekdays != nil {
			fields = append(fields, FieldError{"weekdays", "must be empty unless frequency is CUSTOM"})
		}
	case FreqCustom:
		if len(r.Weekdays) != 7 {
			fields = append(fields, FieldError{"weekdays", "must be exactly 7 elements long"})
		} else {
			for _, d := range r.Weekdays {
				if d != 0 && d != 1 {
					fields = append(fields, FieldError{"weekdays", "must contain only 0 or 1 values"})
					break
				}
			}
		}
		if r.EveryN != nil {
			fields = append(fields, FieldError{"every_n", "must be empty unless frequency is EVERY_N_DAYS"})
		}
	case FreqOnce, FreqDaily, FreqWeekdayOnly:
		if r.EveryN != nil {
			fields = append(fields, FieldError{"every_n", "must be empty unless frequency is EVERY_N_DAYS"})
		}
		if r.Weekdays != nil {
			fields = append(fields, FieldError{"weekdays", "must be empty unless frequency is CUSTOM"})
		}
	default:
		fields = append(fields, FieldError{"frequency", fmt.Sprintf("unknown value %q", string(r.Frequency))})
	}

	if len(fields) > 0 {
		return &MismatchError{Fields: fields}
	}
	return nil
}
