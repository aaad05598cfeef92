package model

import "time"

// Post 短视频动态，单独构成可分页的媒体流
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `gorm:"type:varchar(36);index:idx_post_author"`
	Caption   string    `gorm:"type:text"`
	VideoURL  string    `gorm:"type:varchar(1024);not null"`
	Visible   bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"index:idx_post_created"`
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }
