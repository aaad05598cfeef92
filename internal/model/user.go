package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User 用户；SchoolID 为空表示未绑定学校
type User struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	Username  string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	Email     string  `gorm:"type:varchar(128);uniqueIndex;not null"`
	Password  string  `gorm:"type:varchar(100);not null"`
	SchoolID  *string `gorm:"type:varchar(36);index"`
	Role      string  `gorm:"type:varchar(16);not null;default:student"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// SetPassword 以 bcrypt 哈希保存密码
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
