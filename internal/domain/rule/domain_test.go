package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	require.Equal(t, TimeOfDay{Hour: 8, Minute: 30}, tod)

	tod, err = ParseTimeOfDay("23:59:07")
	require.NoError(t, err)
	require.Equal(t, TimeOfDay{Hour: 23, Minute: 59, Second: 7}, tod)
	require.Equal(t, "23:59:07", tod.String())

	_, err = ParseTimeOfDay("25:00")
	require.Error(t, err)
}

func TestTimeOfDayOn(t *testing.T) {
	tod := TimeOfDay{Hour: 8, Minute: 15}
	d := time.Date(2024, 6, 1, 22, 40, 59, 123, time.UTC)
	require.Equal(t, time.Date(2024, 6, 1, 8, 15, 0, 0, time.UTC), tod.On(d))
}

func TestValidate(t *testing.T) {
	n := 3
	mask := []int16{1, 0, 1, 0, 1, 0, 0}

	t.Run("valid variants", func(t *testing.T) {
		for _, r := range []*Rule{
			{Frequency: FreqOnce},
			{Frequency: FreqDaily},
			{Frequency: FreqWeekdayOnly},
			{Frequency: FreqEveryNDays, EveryN: &n},
			{Frequency: FreqCustom, Weekdays: mask},
		} {
			require.NoError(t, r.Validate(), string(r.Frequency))
		}
	})

	t.Run("every_n missing", func(t *testing.T) {
		err := (&Rule{Frequency: FreqEveryNDays}).Validate()
		var merr *MismatchError
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Fields, 1)
		require.Equal(t, "every_n", merr.Fields[0].Field)
	})

	t.Run("every_n not positive", func(t *testing.T) {
		zero := 0
		err := (&Rule{Frequency: FreqEveryNDays, EveryN: &zero}).Validate()
		require.Error(t, err)
	})

	t.Run("stray fields rejected", func(t *testing.T) {
		err := (&Rule{Frequency: FreqDaily, EveryN: &n, Weekdays: mask}).Validate()
		var merr *MismatchError
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Fields, 2)
	})

	t.Run("custom mask shape", func(t *testing.T) {
		err := (&Rule{Frequency: FreqCustom, Weekdays: []int16{1, 0}}).Validate()
		require.Error(t, err)

		err = (&Rule{Frequency: FreqCustom, Weekdays: []int16{1, 0, 2, 0, 0, 0, 0}}).Validate()
		require.Error(t, err)
	})

	t.Run("custom with interval rejected", func(t *testing.T) {
		err := (&Rule{Frequency: FreqCustom, Weekdays: mask, EveryN: &n}).Validate()
		require.Error(t, err)
	})

	t.Run("unknown frequency", func(t *testing.T) {
		err := (&Rule{Frequency: "HOURLY"}).Validate()
		var merr *MismatchError
		require.ErrorAs(t, err, &merr)
		require.Equal(t, "frequency", merr.Fields[0].Field)
	})
}
