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

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	ctx := context.Background()

	// params
	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	WORKERS := envInt("WORKERS", 8)
	PAGE := envInt("PAGE", 50)

	// clean tables for a reproducible run (ok for local bench)
	_ = db.Exec("TRUNCATE TABLE fans, follows, users RESTART IDENTITY CASCADE").Error

	users := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	replicator := service.NewFanReplicator(fanRepo, N)
	stop := replicator.Start(WORKERS)
	relSvc := service.NewRelationshipService(users, followRepo, fanRepo, replicator)

	// 一个热门用户被 N 个学生关注
	celeb := model.User{ID: uuid.NewString(), Username: "celeb", Email: "celeb@bench.dev", Password: "p"}
	if err := db.Create(&celeb).Error; err != nil {
		panic(err)
	}
	fans := make([]model.User, N)
	for i := range fans {
		id := uuid.NewString()
		fans[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@bench.dev", Password: "p"}
	}
	if err := db.CreateInBatches(&fans, 1000).Error; err != nil {
		panic(err)
	}

	// 复制落地耗时
	repRecs := make([]time.Duration, 0, N)
	doneRep := make(chan struct{})
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for {
			select {
			case d := <-replicator.Metrics():
				repRecs = append(repRecs, d)
			case <-doneRep:
				return
			}
		}
	}()

	maxQ := 0
	quitSample := make(chan struct{})
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := replicator.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	jobs := make(chan int, N)
	for i := 0; i < N; i++ {
		jobs <- i
	}
	close(jobs)
	latCh := make(chan time.Duration, N)
	done := make(chan struct{}, CONC)
	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		go func() {
			for i := range jobs {
				st := time.Now()
				if err := relSvc.Follow(ctx, fans[i].ID, celeb.ID); err != nil {
					fmt.Fprintln(os.Stderr, "follow:", err)
				}
				latCh <- time.Since(st)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < CONC; w++ {
		<-done
	}
	followDur := time.Since(t0)
	close(latCh)
	followRecs := make([]time.Duration, 0, N)
	for d := range latCh {
		followRecs = append(followRecs, d)
	}

	// 停止时排空队列
	drainStart := time.Now()
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	if err := stop(stopCtx); err != nil {
		fmt.Fprintln(os.Stderr, "replicator stop:", err)
	}
	cancel()
	drainDur := time.Since(drainStart)
	close(quitSample)
	<-sampled
	// 等待采集协程把剩余样本读完
	for len(replicator.Metrics()) > 0 {
		time.Sleep(time.Millisecond)
	}
	close(doneRep)
	<-collected

	q0 := time.Now()
	page := must(relSvc.ListFans(ctx, celeb.ID, 1, PAGE))
	fansDur := time.Since(q0)

	fmt.Printf("N=%d CONC=%d WORKERS=%d PAGE=%d\n", N, CONC, WORKERS, PAGE)
	fmt.Printf("Follow (follows write + enqueue): total=%v p50=%v p95=%v p99=%v\n",
		followDur, pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99))
	fmt.Printf("Replication landing: samples=%d p50=%v p95=%v p99=%v maxQueue=%d drain=%v\n",
		len(repRecs), pct(repRecs, 0.50), pct(repRecs, 0.95), pct(repRecs, 0.99), maxQ, drainDur)
	fmt.Printf("Query fans(%d): %v rows=%d\n", PAGE, fansDur, len(page))
}
