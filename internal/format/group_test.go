package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayLabel(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2024, 5, 10, 9, 30, 0, 0, loc)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"earlier today", time.Date(2024, 5, 10, 0, 5, 0, 0, loc), "Today"},
		{"later today", time.Date(2024, 5, 10, 23, 0, 0, 0, loc), "Today"},
		{"yesterday morning", time.Date(2024, 5, 9, 0, 0, 0, 0, loc), "Yesterday"},
		{"yesterday late", time.Date(2024, 5, 9, 23, 59, 0, 0, loc), "Yesterday"},
		{"two days ago", time.Date(2024, 5, 8, 12, 0, 0, 0, loc), "Wednesday, May 8"},
		// 23:30 UTC 在 CET 已是次日
		{"other zone", time.Date(2024, 5, 8, 23, 30, 0, 0, time.UTC), "Yesterday"},
		{"last year", time.Date(2023, 12, 31, 12, 0, 0, 0, loc), "Sunday, Dec 31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayLabel(tt.t, now))
		})
	}
}

func TestDayLabelAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 2024-03-31 只有 23 小时
	now := time.Date(2024, 4, 1, 0, 30, 0, 0, loc)
	assert.Equal(t, "Yesterday", DayLabel(time.Date(2024, 3, 31, 0, 10, 0, 0, loc), now))
	assert.Equal(t, "Saturday, Mar 30", DayLabel(time.Date(2024, 3, 30, 23, 50, 0, 0, loc), now))
}

type item struct {
	id int
	at time.Time
}

func TestGroupByDay(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	items := []item{
		{1, now.Add(-1 * time.Hour)},
		{2, now.Add(-3 * time.Hour)},
		{3, now.Add(-26 * time.Hour)},
		{4, now.Add(-50 * time.Hour)},
		{5, now.Add(-51 * time.Hour)},
		{6, now.Add(-24 * 9 * time.Hour)},
	}

	sections := GroupByDay(items, func(i item) time.Time { return i.at }, now)

	require.Len(t, sections, 4)
	assert.Equal(t, "Today", sections[0].Title)
	assert.Equal(t, "Yesterday", sections[1].Title)
	assert.Equal(t, "Wednesday, May 8", sections[2].Title)
	assert.Equal(t, "Wednesday, May 1", sections[3].Title)

	// 每条记录恰好出现在一个分组中
	seen := map[int]int{}
	for _, s := range sections {
		for _, it := range s.Data {
			seen[it.id]++
		}
	}
	require.Len(t, seen, len(items))
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %d", id)
	}
	assert.Equal(t, []item{items[0], items[1]}, sections[0].Data)
}

func TestGroupByDayEmpty(t *testing.T) {
	sections := GroupByDay(nil, func(i item) time.Time { return i.at }, time.Now())
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}
