package model

// Schedule 课表条目，对应 schedules
// ScheduleID 由服务端生成；Owner 取自会话邮箱，创建后不可变
type Schedule struct {
	ScheduleID       string `gorm:"type:uuid;primaryKey" json:"id"`
	CourseCode       string `gorm:"type:text;not null"   json:"courseCode"`
	DescriptiveTitle string `gorm:"type:text;not null"   json:"descriptiveTitle"`
	Units            string `gorm:"type:text;not null"   json:"units"`
	Days             string `gorm:"type:text;not null"   json:"days"`
	Time             string `gorm:"type:text;not null"   json:"time"`
	Room             string `gorm:"type:text;not null"   json:"room"`
	Instructor       string `gorm:"type:text;not null"   json:"instructor"`
	Owner            string `gorm:"column:owner_email;type:varchar(255);not null" json:"owner"`
	BaseModel
}

// TableName 指定表名
func (Schedule) TableName() string { return "schedules" }
