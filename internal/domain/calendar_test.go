package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	t.Parallel()

	day, err := ParseWeekday(" monday ")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)

	_, err = ParseWeekday("Mon")
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	assert.True(t, Sunday.Valid())
	assert.False(t, Weekday("sunday").Valid())
}

func TestWeekdayConversions(t *testing.T) {
	t.Parallel()

	for _, day := range Weekdays {
		assert.Equal(t, day, FromTimeWeekday(day.TimeWeekday()), day)
	}
	assert.Equal(t, Monday, WeekdayOf(time.Date(2024, 9, 2, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, WeekdayOf(time.Date(2024, 9, 8, 23, 59, 0, 0, time.UTC)))
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 9 * 60},
		{in: "9:05", want: 9*60 + 5},
		{in: "23:59", want: 23*60 + 59},
		{in: "00:00", want: 0},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTimeOfDay, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	assert.Equal(t, "09:05", MustTimeOfDay("9:05").String())
}

func TestDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, Wednesday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))

	_, err = ParseDate("2024-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)

	var decoded Date
	require.NoError(t, decoded.UnmarshalText([]byte("2024-09-02")))
	assert.Equal(t, Date{Year: 2024, Month: time.September, Day: 2}, decoded)

	loc := time.FixedZone("UTC+9", 9*60*60)
	assert.Equal(t, time.Date(2024, 9, 2, 0, 0, 0, 0, loc), decoded.StartOfDay(loc))
}
