package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/classmate/config"
	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/model"
	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/internal/service"
	"github.com/d60-Lab/classmate/pkg/database"
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

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// slowRepo 给每次查询叠加固定延迟，模拟跨机房往返
type slowRepo struct {
	repository.ContentRepository
	delay time.Duration
}

func (r slowRepo) FindRecent(ctx context.Context, kind feed.Kind, pred feed.Predicate, limit int) ([]feed.Item, error) {
	time.Sleep(r.delay)
	return r.ContentRepository.FindRecent(ctx, kind, pred, limit)
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	ctx := context.Background()

	// params
	AUTHORS := envInt("AUTHORS", 200)
	PERKIND := envInt("PER_KIND", 50) // 每位作者每类内容条数
	ITER := envInt("ITER", 200)
	DELAY := time.Duration(envInt("DELAY_MS", 0)) * time.Millisecond

	// clean tables for a reproducible run (ok for local bench)
	_ = db.Exec("TRUNCATE TABLE threads, reviews, bounties, resources, posts, enrollments, fans, follows, users, courses, schools RESTART IDENTITY CASCADE").Error

	school := model.School{ID: uuid.NewString(), Name: "bench"}
	mustDo(db.Create(&school).Error)
	viewer := model.User{ID: uuid.NewString(), Username: "viewer", Email: "viewer@bench.dev", Password: "p", SchoolID: &school.ID}
	mustDo(db.Create(&viewer).Error)

	authors := make([]model.User, AUTHORS)
	for i := range authors {
		id := uuid.NewString()
		authors[i] = model.User{ID: id, Username: "a" + id[:8], Email: id[:8] + "@bench.dev", Password: "p", SchoolID: &school.ID}
	}
	mustDo(db.CreateInBatches(&authors, 1000).Error)

	base := time.Now().Add(-24 * time.Hour)
	var (
		threads   []model.Thread
		reviews   []model.Review
		bounties  []model.Bounty
		resources []model.Resource
	)
	for i, a := range authors {
		for j := 0; j < PERKIND; j++ {
			at := base.Add(time.Duration(i*PERKIND+j) * time.Second)
			meta := func() model.ContentMeta {
				return model.ContentMeta{ID: uuid.NewString(), AuthorID: a.ID, Visible: true, CreatedAt: at, UpdatedAt: at}
			}
			threads = append(threads, model.Thread{ContentMeta: meta(), Title: "t"})
			reviews = append(reviews, model.Review{ContentMeta: meta(), Rating: 4})
			bounties = append(bounties, model.Bounty{ContentMeta: meta(), Title: "b", Reward: 100})
			resources = append(resources, model.Resource{ContentMeta: meta(), Title: "r", URL: "https://bench.dev"})
		}
	}
	mustDo(db.CreateInBatches(&threads, 1000).Error)
	mustDo(db.CreateInBatches(&reviews, 1000).Error)
	mustDo(db.CreateInBatches(&bounties, 1000).Error)
	mustDo(db.CreateInBatches(&resources, 1000).Error)

	users := repository.NewUserRepository(db)
	resolver := service.NewScopeResolver(users, repository.NewEnrollmentRepository(db), repository.NewFollowRepository(db))
	scope := must(resolver.Resolve(ctx, viewer.ID))
	content := slowRepo{ContentRepository: repository.NewContentRepository(db), delay: DELAY}
	opts := service.DefaultFeedOptions()

	fmt.Printf("AUTHORS=%d PER_KIND=%d ITER=%d DELAY=%v\n", AUTHORS, PERKIND, ITER, DELAY)
	for _, mode := range []struct {
		name       string
		sequential bool
	}{{"sequential", true}, {"concurrent", false}} {
		svc := service.NewFeedService(service.NewMixedFetcher(content, mode.sequential), repository.NewPostRepository(db), opts)
		durations := make([]time.Duration, 0, ITER)
		items := 0
		for i := 0; i < ITER; i++ {
			st := time.Now()
			page := must(svc.DiscussionFeed(ctx, scope))
			durations = append(durations, time.Since(st))
			items = len(page.Items)
		}
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		fmt.Printf("%-10s discussion feed: items=%d avg=%v p95=%v p99=%v\n",
			mode.name, items, sum/time.Duration(len(durations)), pct(durations, 0.95), pct(durations, 0.99))
	}
}
