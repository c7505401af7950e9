package model

import (
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func parseSchema(t *testing.T, dest interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(dest, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("解析模型失败: %v", err)
	}
	return s
}

// 用户输入的自由文本列不设长度上限，超长输入不会在写库时失败
func TestFreeTextColumnsAreText(t *testing.T) {
	cases := map[string]struct {
		dest   interface{}
		fields []string
	}{
		"schedules": {&Schedule{}, []string{"CourseCode", "DescriptiveTitle", "Units", "Days", "Time", "Room", "Instructor"}},
		"users":     {&User{}, []string{"Name", "Program", "Year", "Semester", "AcademicYear"}},
	}
	for table, tc := range cases {
		s := parseSchema(t, tc.dest)
		if s.Table != table {
			t.Errorf("期望表名 %s，实际 %s", table, s.Table)
		}
		for _, name := range tc.fields {
			f := s.LookUpField(name)
			if f == nil {
				t.Errorf("%s 缺少字段 %s", table, name)
				continue
			}
			if typ := strings.ToLower(f.TagSettings["TYPE"]); typ != "text" {
				t.Errorf("%s.%s 应为 text，实际 %q", table, f.DBName, typ)
			}
		}
	}
}

func TestScheduleOwnerColumn(t *testing.T) {
	s := parseSchema(t, &Schedule{})
	f := s.LookUpField("Owner")
	if f == nil || f.DBName != "owner_email" {
		t.Fatalf("Owner 应映射到 owner_email，实际 %+v", f)
	}
}
