package model

import "time"

// Enrollment 选课记录；只有 Active 的选课参与信息流范围计算
type Enrollment struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_enrollment_pair,unique;not null"`
	CourseID  string `gorm:"type:varchar(36);index:idx_enrollment_pair,unique;index;not null"`
	Active    bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Enrollment) TableName() string { return "enrollments" }
