package format

import "time"

// 日期标签
const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
)

// DayLabel 返回 t 相对 now 的日期标签，按 now 所在时区计算自然日
func DayLabel(t, now time.Time) string {
	loc := now.Location()
	t = t.In(loc)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

	// 日历天数差，避开夏令时导致的 23/25 小时
	diff := daysBetween(day, today)
	switch {
	case diff < 1:
		return LabelToday
	case diff < 2:
		return LabelYesterday
	}
	return t.Format("Monday, Jan 2")
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Section 一组同一天的记录
type Section[T any] struct {
	Title string `json:"title"`
	Data  []T    `json:"data"`
}

// GroupByDay 按日期标签分组，组顺序为首次出现的顺序，组内保持原顺序
func GroupByDay[T any](items []T, date func(T) time.Time, now time.Time) []Section[T] {
	sections := make([]Section[T], 0)
	index := make(map[string]int)

	for _, item := range items {
		label := DayLabel(date(item), now)
		i, ok := index[label]
		if !ok {
			i = len(sections)
			index[label] = i
			sections = append(sections, Section[T]{Title: label})
		}
		sections[i].Data = append(sections[i].Data, item)
	}
	return sections
}
