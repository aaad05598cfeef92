package model

import "time"

// School 学校（租户边界）
type School struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"type:varchar(128);uniqueIndex;not null"`
	CreatedAt time.Time
}

func (School) TableName() string { return "schools" }

// Course 课程，归属某个学校
type Course struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SchoolID  string `gorm:"type:varchar(36);index;not null"`
	Code      string `gorm:"type:varchar(32);not null"`
	Title     string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
}

func (Course) TableName() string { return "courses" }
