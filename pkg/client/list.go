package client

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

// SortField 表格可排序的列，取值与 JSON 字段名一致
type SortField string

const (
	SortCourseCode       SortField = "courseCode"
	SortDescriptiveTitle SortField = "descriptiveTitle"
	SortUnits            SortField = "units"
	SortDays             SortField = "days"
	SortTime             SortField = "time"
	SortRoom             SortField = "room"
	SortInstructor       SortField = "instructor"
)

// Direction 排序方向
type Direction int

const (
	Asc Direction = iota
	Desc
)

// ScheduleList 本地课表集合，顺序为服务端返回顺序（createdAt 倒序）
type ScheduleList struct {
	mu    sync.RWMutex
	items []model.Schedule
}

// NewScheduleList 以服务端列表初始化
func NewScheduleList(items []model.Schedule) *ScheduleList {
	return &ScheduleList{items: slices.Clone(items)}
}

// Merge 合并服务端返回的记录：同 id 原位替换，否则插到最前
func (l *ScheduleList) Merge(s model.Schedule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexLocked(s.ScheduleID); i >= 0 {
		l.items[i] = s
		return
	}
	l.items = append([]model.Schedule{s}, l.items...)
}

// Remove 删除指定 id，不存在时返回 false
func (l *ScheduleList) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(id)
	if i < 0 {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	return true
}

// Items 当前集合副本
func (l *ScheduleList) Items() []model.Schedule {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Len 记录数
func (l *ScheduleList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Sorted 返回按列排序后的副本，不改变集合本身；值相等时保持原顺序
// 学分按数值、时间按开始时刻比较；无法解析的值不论方向都排在最后，彼此按文本比较
func (l *ScheduleList) Sorted(field SortField, dir Direction) []model.Schedule {
	out := l.Items()
	slices.SortStableFunc(out, func(a, b model.Schedule) int {
		if x, okX, numeric := numericKey(field, a); numeric {
			y, okY, _ := numericKey(field, b)
			switch {
			case okX && okY:
				return directed(cmp.Compare(x, y), dir)
			case okX:
				return -1
			case okY:
				return 1
			}
		}
		return directed(compareText(columnText(field, a), columnText(field, b)), dir)
	})
	return out
}

func (l *ScheduleList) indexLocked(id string) int {
	return slices.IndexFunc(l.items, func(s model.Schedule) bool { return s.ScheduleID == id })
}

// numericKey 数值列的排序键；numeric 为 false 表示该列按文本比较
func numericKey(field SortField, s model.Schedule) (key float64, ok, numeric bool) {
	switch field {
	case SortUnits:
		v, err := strconv.ParseFloat(strings.TrimSpace(s.Units), 64)
		return v, err == nil, true
	case SortTime:
		start, _, _ := strings.Cut(s.Time, "-")
		d, err := validation.ParseClock(start)
		return float64(d), err == nil, true
	}
	return 0, false, false
}

func columnText(field SortField, s model.Schedule) string {
	switch field {
	case SortCourseCode:
		return s.CourseCode
	case SortDescriptiveTitle:
		return s.DescriptiveTitle
	case SortUnits:
		return s.Units
	case SortDays:
		return s.Days
	case SortTime:
		return s.Time
	case SortRoom:
		return s.Room
	case SortInstructor:
		return s.Instructor
	}
	return ""
}

func directed(c int, dir Direction) int {
	if dir == Desc {
		return -c
	}
	return c
}

func compareText(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
