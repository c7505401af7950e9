// Package validation 课表字段的格式校验规则，服务端与客户端共用。
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayPatterns 允许的上课日写法
var DayPatterns = []string{"MWF", "TTH", "M", "T", "W", "TH", "F", "S"}

// 校验失败文案
const (
	MsgMissingFields = "Missing required fields"
	MsgInvalidUnits  = "Units must be a number greater than 0"
	MsgInvalidDays   = "Please enter valid days (MWF, TTH, M, T, W, TH, F, S)"
	MsgInvalidTime   = "Please enter a valid time range (start-end) with end later than start"
)

var timeLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

// Rules 可选校验规则开关；学分校验始终开启
type Rules struct {
	StrictDays bool
	StrictTime bool
}

// ValidUnits 学分必须可解析为大于 0 的数字
func ValidUnits(units string) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(units), 64)
	if err != nil {
		return false
	}
	return n > 0
}

// ValidDays 上课日必须是 DayPatterns 之一（大小写不敏感）
func ValidDays(days string) bool {
	d := strings.ToUpper(strings.TrimSpace(days))
	for _, p := range DayPatterns {
		if d == p {
			return true
		}
	}
	return false
}

// ParseClock 解析 "9:00 AM" 或 "09:00" 形式的时刻，返回当天零点起的偏移
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, strings.ToUpper(s))
		if err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
		}
	}
	return 0, fmt.Errorf("无法解析时间 %q", s)
}

// ParseTimeRange 解析 "<start>-<end>"，要求结束时间严格晚于开始时间
func ParseTimeRange(s string) (start, end time.Duration, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("时间段格式无效 %q", s)
	}
	if start, err = ParseClock(parts[0]); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(parts[1]); err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("结束时间必须晚于开始时间 %q", s)
	}
	return start, end, nil
}

// FormatTimeRange 由起止时刻拼出 "9:00 AM-10:00 AM"
func FormatTimeRange(start, end time.Duration) string {
	return formatClock(start) + "-" + formatClock(end)
}

func formatClock(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("3:04 PM")
}

// Fields 参与格式校验的七个课表字段
type Fields struct {
	CourseCode       string
	DescriptiveTitle string
	Units            string
	Days             string
	Time             string
	Room             string
	Instructor       string
}

// Required 七个字段均不能为空白
func (f Fields) Required() bool {
	for _, v := range []string{f.CourseCode, f.DescriptiveTitle, f.Units, f.Days, f.Time, f.Room, f.Instructor} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Check 按规则校验完整记录，返回第一条失败文案；全部通过返回空字符串
func (r Rules) Check(f Fields) string {
	if !f.Required() {
		return MsgMissingFields
	}
	return r.checkShape(f.Units, f.Days, f.Time)
}

// CheckPartial 校验部分更新中已提供的字段，nil 表示未提供
func (r Rules) CheckPartial(units, days, timeRange *string, others ...*string) string {
	for _, p := range append([]*string{units, days, timeRange}, others...) {
		if p != nil && strings.TrimSpace(*p) == "" {
			return MsgMissingFields
		}
	}
	var u, d, t string
	if units != nil {
		u = *units
	}
	if days != nil {
		d = *days
	}
	if timeRange != nil {
		t = *timeRange
	}
	return r.checkShape(u, d, t)
}

// checkShape 空字符串视为未提供，跳过对应规则
func (r Rules) checkShape(units, days, timeRange string) string {
	if units != "" && !ValidUnits(units) {
		return MsgInvalidUnits
	}
	if r.StrictDays && days != "" && !ValidDays(days) {
		return MsgInvalidDays
	}
	if r.StrictTime && timeRange != "" {
		if _, _, err := ParseTimeRange(timeRange); err != nil {
			return MsgInvalidTime
		}
	}
	return ""
}
