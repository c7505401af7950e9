package validation

import (
	"strings"
	"time"
	"unicode"
)

var weekdayNames = map[string]time.Weekday{
	"MON": time.Monday, "MONDAY": time.Monday,
	"TUE": time.Tuesday, "TUES": time.Tuesday, "TUESDAY": time.Tuesday,
	"WED": time.Wednesday, "WEDNESDAY": time.Wednesday,
	"THU": time.Thursday, "THUR": time.Thursday, "THURS": time.Thursday, "THURSDAY": time.Thursday,
	"FRI": time.Friday, "FRIDAY": time.Friday,
	"SAT": time.Saturday, "SATURDAY": time.Saturday,
	"SUN": time.Sunday, "SUNDAY": time.Sunday,
}

// ParseWeekdays 把上课日文本解析为星期列表，按出现顺序去重
// 支持紧凑写法（MWF、TTH、MTWTHF）以及以空格、逗号、斜杠分隔的英文全称或缩写；
// 无法识别时 ok 为 false
func ParseWeekdays(days string) (out []time.Weekday, ok bool) {
	words := strings.FieldsFunc(strings.ToUpper(days), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return nil, false
	}

	seen := make(map[time.Weekday]bool, 7)
	add := func(d time.Weekday) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}

	for _, w := range words {
		if d, found := weekdayNames[w]; found {
			add(d)
			continue
		}
		compact, valid := parseCompactDays(w)
		if !valid {
			return nil, false
		}
		for _, d := range compact {
			add(d)
		}
	}
	return out, true
}

// parseCompactDays 解析 M / T / W / TH / F / S / SU 连写，TH 与 SU 优先匹配
func parseCompactDays(w string) ([]time.Weekday, bool) {
	var out []time.Weekday
	for i := 0; i < len(w); {
		switch {
		case strings.HasPrefix(w[i:], "TH"):
			out, i = append(out, time.Thursday), i+2
		case strings.HasPrefix(w[i:], "SU"):
			out, i = append(out, time.Sunday), i+2
		case w[i] == 'M':
			out, i = append(out, time.Monday), i+1
		case w[i] == 'T':
			out, i = append(out, time.Tuesday), i+1
		case w[i] == 'W':
			out, i = append(out, time.Wednesday), i+1
		case w[i] == 'F':
			out, i = append(out, time.Friday), i+1
		case w[i] == 'S':
			out, i = append(out, time.Saturday), i+1
		default:
			return nil, false
		}
	}
	return out, true
}
