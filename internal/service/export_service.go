package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jomadlcrz/Class-Schedule-System/config"
	"github.com/jomadlcrz/Class-Schedule-System/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail   = errors.New("生成 Excel 文件失败")
	ErrCalendarGenerateFail = errors.New("生成日历文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出当前用户的全部课表条目为 Excel (.xlsx)，顺序与列表页一致（创建时间倒序）
//   - 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 没有条目时仍然导出仅含表头的文件
//   - ExportCalendar 导出 iCalendar (.ics)，每条课表一个每周重复的日程
type ExportService interface {
	ExportSchedules(ctx context.Context, owner string) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, owner string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	weeks  int
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
// 时区在配置加载时已校验，这里解析失败时退回 UTC
func NewExportService(cfg *config.ExportConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, weeks: cfg.Weeks, logger: logger, now: time.Now}
}

const exportSheet = "Schedule"

var exportHeaders = []string{
	"Course Code", "Descriptive Title", "Units", "Days", "Time", "Room", "Instructor",
}

var exportColWidths = []float64{14, 36, 8, 8, 22, 12, 24}

// ═══════════════════════════════════════════════════════════
// ExportSchedules 导出课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet "Schedule"
//   - 第 1 行表头，之后每条记录一行
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportSchedules(ctx context.Context, owner string) (*bytes.Buffer, string, error) {
	schedules, err := s.repo.Schedule.ListByOwner(ctx, owner)
	if err != nil {
		s.logger.Error("查询课表失败", zap.String("owner", owner), zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, w := range exportColWidths {
		col := colName(i)
		f.SetColWidth(exportSheet, col, col, w)
	}

	// 表头
	for i, h := range exportHeaders {
		f.SetCellValue(exportSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(exportSheet, "A1", cell(colName(len(exportHeaders)-1), 1), headerStyle)

	// 数据行
	for i, sc := range schedules {
		row := i + 2
		values := []string{sc.CourseCode, sc.DescriptiveTitle, sc.Units, sc.Days, sc.Time, sc.Room, sc.Instructor}
		for j, v := range values {
			f.SetCellValue(exportSheet, cell(colName(j), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, exportFilename(owner, "xlsx"), nil
}

// ── 辅助函数 ──

// exportFilename 取邮箱 @ 之前的部分作为文件名前缀
func exportFilename(owner, ext string) string {
	name := owner
	if i := strings.IndexByte(owner, '@'); i > 0 {
		name = owner[:i]
	}
	if name == "" {
		name = "my"
	}
	return fmt.Sprintf("%s_schedule.%s", name, ext)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
