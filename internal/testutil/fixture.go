// Package testutil builds throwaway sqlite databases and rows for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/classmate/internal/model"
)

// NewDB 打开独立的内存 sqlite 并迁移全部表。
// 单连接：内存库按连接隔离，并发查询会在连接上排队。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixture 写入测试数据，出错直接失败
type Fixture struct {
	t  testing.TB
	DB *gorm.DB
	// Base 为内容时间基准，Minute(n) 相对它偏移
	Base time.Time
}

func NewFixture(t testing.TB) *Fixture {
	return &Fixture{t: t, DB: NewDB(t), Base: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (f *Fixture) Minute(n int) time.Time { return f.Base.Add(time.Duration(n) * time.Minute) }

func (f *Fixture) create(v interface{}) {
	f.t.Helper()
	if err := f.DB.Create(v).Error; err != nil {
		f.t.Fatalf("create %T: %v", v, err)
	}
}

func (f *Fixture) School(name string) string {
	s := &model.School{ID: uuid.NewString(), Name: name}
	f.create(s)
	return s.ID
}

func (f *Fixture) Course(schoolID, code string) string {
	c := &model.Course{ID: uuid.NewString(), SchoolID: schoolID, Code: code, Title: code}
	f.create(c)
	return c.ID
}

// User 创建用户；schoolID 为空串表示无学校
func (f *Fixture) User(username, schoolID string) string {
	return f.UserWithRole(username, schoolID, model.RoleStudent)
}

func (f *Fixture) UserWithRole(username, schoolID, role string) string {
	u := &model.User{ID: uuid.NewString(), Username: username, Email: username + "@example.edu", Password: "x", Role: role}
	if schoolID != "" {
		u.SchoolID = &schoolID
	}
	f.create(u)
	return u.ID
}

func (f *Fixture) Enroll(userID, courseID string, active bool) {
	f.create(&model.Enrollment{ID: uuid.NewString(), UserID: userID, CourseID: courseID, Active: active})
}

func (f *Fixture) Follow(followerID, followeeID string) {
	f.create(&model.Follow{ID: uuid.NewString(), FollowerID: followerID, FolloweeID: followeeID})
}

// Content 描述一条待写入的讨论内容
type Content struct {
	AuthorID string
	CourseID string
	At       time.Time
	Hidden   bool
}

func (f *Fixture) meta(c Content) model.ContentMeta {
	m := model.ContentMeta{ID: uuid.NewString(), AuthorID: c.AuthorID, Visible: !c.Hidden, CreatedAt: c.At, UpdatedAt: c.At}
	if c.CourseID != "" {
		id := c.CourseID
		m.CourseID = &id
	}
	return m
}

func (f *Fixture) Thread(c Content) string {
	row := &model.Thread{ContentMeta: f.meta(c), Title: "thread", Body: "body"}
	f.create(row)
	return row.ID
}

func (f *Fixture) Review(c Content) string {
	row := &model.Review{ContentMeta: f.meta(c), Rating: 5, Body: "great"}
	f.create(row)
	return row.ID
}

func (f *Fixture) Bounty(c Content) string {
	row := &model.Bounty{ContentMeta: f.meta(c), Title: "need a tutor", Reward: 2500}
	f.create(row)
	return row.ID
}

func (f *Fixture) Resource(c Content) string {
	row := &model.Resource{ContentMeta: f.meta(c), Title: "notes", URL: "https://example.edu/notes.pdf"}
	f.create(row)
	return row.ID
}

func (f *Fixture) Post(authorID string, at time.Time, hidden bool) string {
	row := &model.Post{ID: uuid.NewString(), AuthorID: authorID, Caption: "clip", VideoURL: "https://cdn.example.edu/v.mp4", Visible: !hidden, CreatedAt: at, UpdatedAt: at}
	f.create(row)
	return row.ID
}
