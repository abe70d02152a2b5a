package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campus-planner/internal/domain"
)

func mustDate(t testing.TB, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func weeklySlot(id string, day domain.Weekday, start, end string) domain.Slot {
	return domain.Slot{
		ID:      id,
		Title:   id,
		Weekday: day,
		Start:   domain.MustTimeOfDay(start),
		End:     domain.MustTimeOfDay(end),
		Kind:    domain.SlotKindAcademic,
	}
}

func TestEngine_Expand(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+9", 9*60*60)
	engine := NewEngine(loc)
	slots := []domain.Slot{
		weeklySlot("physics", domain.Monday, "09:00", "10:00"),
		weeklySlot("chem", domain.Wednesday, "13:00", "14:30"),
		weeklySlot("maths", domain.Monday, "08:00", "09:00"),
	}

	t.Run("respects weekdays in chronological order", func(t *testing.T) {
		t.Parallel()

		// 2024-09-02 is a Monday.
		got, err := engine.Expand(slots, mustDate(t, "2024-09-02"), mustDate(t, "2024-09-09"))
		require.NoError(t, err)

		ids := make([]string, 0, len(got))
		dates := make([]string, 0, len(got))
		for _, occ := range got {
			ids = append(ids, occ.SlotID)
			dates = append(dates, occ.Date.String())
		}
		assert.Equal(t, []string{"maths", "physics", "chem", "maths", "physics"}, ids)
		assert.Equal(t, []string{"2024-09-02", "2024-09-02", "2024-09-04", "2024-09-09", "2024-09-09"}, dates)

		assert.Equal(t, time.Date(2024, 9, 4, 13, 0, 0, 0, loc), got[2].Start)
		assert.Equal(t, time.Date(2024, 9, 4, 14, 30, 0, 0, loc), got[2].End)
	})

	t.Run("single day", func(t *testing.T) {
		t.Parallel()

		got, err := engine.Expand(slots, mustDate(t, "2024-09-03"), mustDate(t, "2024-09-03"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects inverted and oversized windows", func(t *testing.T) {
		t.Parallel()

		_, err := engine.Expand(slots, mustDate(t, "2024-09-09"), mustDate(t, "2024-09-02"))
		assert.ErrorIs(t, err, ErrInvalidWindow)

		_, err = engine.Expand(slots, mustDate(t, "2024-09-01"), mustDate(t, "2024-10-02"))
		assert.ErrorIs(t, err, ErrWindowTooLarge)

		_, err = engine.Expand(slots, mustDate(t, "2024-09-01"), mustDate(t, "2024-10-01"))
		assert.NoError(t, err)
	})

	t.Run("rejects slots without duration", func(t *testing.T) {
		t.Parallel()

		_, err := engine.Expand([]domain.Slot{weeklySlot("bad", domain.Monday, "10:00", "10:00")},
			mustDate(t, "2024-09-02"), mustDate(t, "2024-09-02"))
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})
}
