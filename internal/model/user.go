package model

import "time"

// User 用户表，对应 users
// Program / Year / Semester / AcademicYear 由首次登录后的引导弹窗填写
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	Name         string `gorm:"type:text;not null;default:''"                  json:"name"`
	Image        string `gorm:"type:text;not null;default:''"                  json:"image"`
	Program      string `gorm:"type:text;not null;default:''"                  json:"program"`
	Year         string `gorm:"type:text;not null;default:''"                  json:"year"`
	Semester     string `gorm:"type:text;not null;default:''"                  json:"semester"`
	AcademicYear string `gorm:"type:text;not null;default:''"                  json:"academicYear"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// ProfileCompleted 四项档案信息均已填写
func (u *User) ProfileCompleted() bool {
	return u.Program != "" && u.Year != "" && u.Semester != "" && u.AcademicYear != ""
}

// Account 第三方身份与本地用户的绑定，对应 accounts
type Account struct {
	AccountID         string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID            string `gorm:"type:uuid;not null"                             json:"userId"`
	Provider          string `gorm:"type:varchar(50);not null"                      json:"provider"`
	ProviderAccountID string `gorm:"type:varchar(255);not null"                     json:"providerAccountId"`
	BaseModel
}

// TableName 指定表名
func (Account) TableName() string { return "accounts" }

// Session 数据库会话，对应 sessions
// TokenHash 为 Cookie 中不透明令牌的 SHA-256，明文令牌不落库
type Session struct {
	SessionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	TokenHash string    `gorm:"type:char(64);not null"                         json:"-"`
	UserID    string    `gorm:"type:uuid;not null"                             json:"-"`
	ExpiresAt time.Time `gorm:"not null"                                       json:"expires"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"-"`
}

// TableName 指定表名
func (Session) TableName() string { return "sessions" }
