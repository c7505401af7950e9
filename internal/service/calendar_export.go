package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jomadlcrz/Class-Schedule-System/internal/model"
	"github.com/jomadlcrz/Class-Schedule-System/pkg/validation"
)

const (
	calendarProduct   = "Class Schedule System"
	icsLocalTimestamp = "20060102T150405"
	icsUTCTimestamp   = "20060102T150405Z"
)

var icsWeekdays = map[time.Weekday]string{
	time.Sunday: "SU", time.Monday: "MO", time.Tuesday: "TU", time.Wednesday: "WE",
	time.Thursday: "TH", time.Friday: "FR", time.Saturday: "SA",
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 导出课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 规则：
//   - 从导出当周的周一开始，每条课表生成一个 FREQ=WEEKLY 日程，重复 weeks 周
//   - DTSTART 取本周第一个上课日 + 开始时刻，BYDAY 由上课日推出
//   - 上课日或时间段无法解析的条目跳过，不影响其余条目
//   - 日历名称取用户昵称，查不到用户时使用邮箱

func (s *exportService) ExportCalendar(ctx context.Context, owner string) (*bytes.Buffer, string, error) {
	schedules, err := s.repo.Schedule.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("owner", owner), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendarFor(calendarProduct)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(s.calendarName(ctx, owner) + " Class Schedule")
	cal.SetXWRTimezone(s.loc.String())

	now := s.now()
	weekStart := mondayOf(now.In(s.loc))
	until := weekStart.AddDate(0, 0, 7*s.weeks).Add(-time.Second)

	skipped := 0
	for i := range schedules {
		if !s.addWeeklyEvent(cal, &schedules[i], weekStart, until, now) {
			skipped++
		}
	}
	if skipped > 0 {
		s.logger.Debug("部分课表无法转换为日程",
			zap.String("owner", owner), zap.Int("skipped", skipped), zap.Int("total", len(schedules)))
	}

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("写入日历失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrCalendarGenerateFail, err)
	}
	return buf, exportFilename(owner, "ics"), nil
}

// addWeeklyEvent 上课日与时间段均可解析时写入日程
func (s *exportService) addWeeklyEvent(cal *ics.Calendar, sc *model.Schedule, weekStart, until, stamp time.Time) bool {
	days, ok := validation.ParseWeekdays(sc.Days)
	if !ok {
		return false
	}
	start, end, err := validation.ParseTimeRange(sc.Time)
	if err != nil {
		return false
	}

	firstOff := 6
	byDay := make([]string, 0, len(days))
	for _, d := range days {
		firstOff = min(firstOff, daysFromMonday(d))
		byDay = append(byDay, icsWeekdays[d])
	}
	first := weekStart.AddDate(0, 0, firstOff)

	event := cal.AddEvent(sc.ScheduleID + "@class-schedule")
	event.SetDtStampTime(stamp)
	s.setEventTime(event, ics.ComponentPropertyDtStart, atClock(first, start))
	s.setEventTime(event, ics.ComponentPropertyDtEnd, atClock(first, end))
	event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
		strings.Join(byDay, ","), until.UTC().Format(icsUTCTimestamp)))
	event.SetSummary(sc.CourseCode + " " + sc.DescriptiveTitle)
	event.SetLocation(sc.Room)
	event.SetDescription(fmt.Sprintf("Instructor: %s\nUnits: %s\nDays: %s\nTime: %s",
		sc.Instructor, sc.Units, sc.Days, validation.FormatTimeRange(start, end)))
	return true
}

// setEventTime UTC 直接写 Z 结尾时间，其余时区写本地时间并带 TZID
func (s *exportService) setEventTime(event *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	if s.loc == time.UTC {
		event.SetProperty(prop, t.UTC().Format(icsUTCTimestamp))
		return
	}
	event.SetProperty(prop, t.Format(icsLocalTimestamp), ics.WithTZID(s.loc.String()))
}

func (s *exportService) calendarName(ctx context.Context, owner string) string {
	user, err := s.repo.User.GetByEmail(ctx, owner)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询用户失败，日历名称使用邮箱", zap.String("owner", owner), zap.Error(err))
		}
		return owner
	}
	if user.Name == "" {
		return owner
	}
	return user.Name
}

// mondayOf 所在周周一零点
func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -daysFromMonday(day.Weekday()))
}

// atClock 当天的本地时刻，夏令时切换日也按墙上时间计算
func atClock(day time.Time, clock time.Duration) time.Time {
	h, m := int(clock/time.Hour), int(clock%time.Hour/time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

func daysFromMonday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
