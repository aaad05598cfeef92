package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/classmate/config"
	"github.com/d60-Lab/classmate/internal/model"
	"github.com/d60-Lab/classmate/pkg/database"
	"github.com/d60-Lab/classmate/pkg/token"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	mustDo(database.Migrate(db))

	students := envInt("STUDENTS", 50)
	perUser := envInt("CONTENT_PER_USER", 4)
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "classmate"
	}
	rng := rand.New(rand.NewSource(42))

	schools := []model.School{
		{ID: uuid.NewString(), Name: "North Campus University"},
		{ID: uuid.NewString(), Name: "South Valley College"},
	}
	mustDo(db.Create(&schools).Error)

	var courses []model.Course
	for _, s := range schools {
		for _, code := range []string{"CS101", "MATH201", "ECON110"} {
			courses = append(courses, model.Course{ID: uuid.NewString(), SchoolID: s.ID, Code: code, Title: code})
		}
	}
	mustDo(db.Create(&courses).Error)

	admin := model.User{ID: uuid.NewString(), Username: "admin", Email: "admin@classmate.dev", Role: model.RoleAdmin}
	mustDo(admin.SetPassword(password))
	mustDo(db.Create(&admin).Error)

	// 所有账号共用同一密码哈希，bcrypt 逐个计算太慢
	hashed := model.User{}
	mustDo(hashed.SetPassword(password))

	users := make([]model.User, students)
	for i := range users {
		school := schools[i%len(schools)].ID
		users[i] = model.User{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("student%03d", i),
			Email:    fmt.Sprintf("student%03d@classmate.dev", i),
			Password: hashed.Password,
			SchoolID: &school,
			Role:     model.RoleStudent,
		}
	}
	// 最后一个学生不绑定学校，用于演示空范围
	users[len(users)-1].SchoolID = nil
	mustDo(db.CreateInBatches(&users, 500).Error)

	now := time.Now().UTC()
	mustDo(db.Transaction(func(tx *gorm.DB) error {
		for i, u := range users[:len(users)-1] {
			c := courses[rng.Intn(len(courses))]
			if err := tx.Create(&model.Enrollment{ID: uuid.NewString(), UserID: u.ID, CourseID: c.ID, Active: true}).Error; err != nil {
				return err
			}
			for j := 1; j <= 3; j++ {
				other := users[(i+j*7)%len(users)]
				if other.ID == u.ID {
					continue
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Follow{ID: uuid.NewString(), FollowerID: u.ID, FolloweeID: other.ID}).Error; err != nil {
					return err
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Fan{ID: uuid.NewString(), UserID: other.ID, FanID: u.ID}).Error; err != nil {
					return err
				}
			}
			for k := 0; k < perUser; k++ {
				at := now.Add(-time.Duration(rng.Intn(7*24*60)) * time.Minute)
				if err := createContent(tx, rng, u.ID, c.ID, at); err != nil {
					return err
				}
			}
		}
		return nil
	}))

	tm := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	fmt.Printf("seeded schools=%d courses=%d students=%d content_per_user=%d\n", len(schools), len(courses), students, perUser)
	fmt.Printf("viewer %s token: %s\n", users[0].Username, must(tm.Issue(users[0].ID, model.RoleStudent)))
	fmt.Printf("admin token: %s\n", must(tm.Issue(admin.ID, model.RoleAdmin)))
}

func createContent(tx *gorm.DB, rng *rand.Rand, authorID, courseID string, at time.Time) error {
	meta := model.ContentMeta{ID: uuid.NewString(), AuthorID: authorID, Visible: true, CreatedAt: at, UpdatedAt: at}
	if rng.Intn(2) == 0 {
		meta.CourseID = &courseID
	}
	switch rng.Intn(5) {
	case 0:
		return tx.Create(&model.Thread{ContentMeta: meta, Title: "Study group tonight?", Body: "Library, 7pm."}).Error
	case 1:
		return tx.Create(&model.Review{ContentMeta: meta, Rating: 1 + rng.Intn(5), Body: "Lectures were clear."}).Error
	case 2:
		return tx.Create(&model.Bounty{ContentMeta: meta, Title: "Need help with proofs", Reward: int64(500 + rng.Intn(5000))}).Error
	case 3:
		return tx.Create(&model.Resource{ContentMeta: meta, Title: "Midterm notes", URL: "https://files.classmate.dev/" + meta.ID}).Error
	default:
		return tx.Create(&model.Post{ID: meta.ID, AuthorID: authorID, Caption: "campus life", VideoURL: "https://cdn.classmate.dev/" + meta.ID + ".mp4", Visible: true, CreatedAt: at, UpdatedAt: at}).Error
	}
}
