// Package format 将 TeslaMate 数据转换为可直接展示的文本
//
// 可空数值统一显示为 Placeholder，0 是合法的测量值，不能用来表示缺失。
package format

import (
	"math"
	"strconv"
	"strings"
)

// 缺失值占位
const (
	Placeholder     = "--"
	UnknownLocation = "Unknown location"
	Unknown         = "Unknown"
)

// Float 按小数位格式化，nil 返回占位
func Float(v *float64, decimals int) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}

// Int 格式化整数，nil 返回占位
func Int(v *int) string {
	if v == nil {
		return Placeholder
	}
	return strconv.Itoa(*v)
}

// WithUnit 拼接单位
func WithUnit(value, unit string) string {
	if unit == "" {
		return value
	}
	return value + " " + unit
}

// Text 空字符串或 nil 返回 fallback
func Text(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}

// Grouped 四舍五入并加千分位，如 12,346
func Grouped(v *float64) string {
	if v == nil {
		return Placeholder
	}
	n := int64(math.Round(*v))
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Duration 分钟数格式化：不足一小时 "N min"，否则 "Hh Mm"
func Duration(minutes int) string {
	if minutes < 0 {
		return Placeholder
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return strconv.Itoa(m) + " min"
	}
	return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
}

// Efficiency 充电效率 added/used*100，保留一位小数
func Efficiency(added, used *float64) string {
	if added == nil || used == nil || *used <= 0 {
		return Placeholder
	}
	return strconv.FormatFloat(*added / *used * 100, 'f', 1, 64)
}
