package model

import "time"

// ContentMeta 四类讨论内容共有的字段。
// Visible 由管理员审核切换；不设 default 标签，否则 gorm 会把 false 当零值替换成默认值。
type ContentMeta struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `gorm:"type:varchar(36);index;not null"`
	CourseID  *string   `gorm:"type:varchar(36);index"`
	Visible   bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// Thread 课程讨论帖
type Thread struct {
	ContentMeta
	Title string `gorm:"type:varchar(255);not null"`
	Body  string `gorm:"type:text"`
}

func (Thread) TableName() string { return "threads" }

// Review 课程评价，Rating 取值 1-5
type Review struct {
	ContentMeta
	Rating int    `gorm:"not null"`
	Body   string `gorm:"type:text"`
}

func (Review) TableName() string { return "reviews" }

// Bounty 家教悬赏，Reward 以分为单位
type Bounty struct {
	ContentMeta
	Title  string `gorm:"type:varchar(255);not null"`
	Reward int64  `gorm:"not null"`
}

func (Bounty) TableName() string { return "bounties" }

// Resource 学习资料分享
type Resource struct {
	ContentMeta
	Title string `gorm:"type:varchar(255);not null"`
	URL   string `gorm:"type:varchar(1024);not null"`
}

func (Resource) TableName() string { return "resources" }
