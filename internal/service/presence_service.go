package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/classmate/internal/repository"
)

// Presence is one online followee and when they last checked in.
type Presence struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceService tracks "beacon" heartbeats in redis. A user is online while
// their key has not expired; clients poll OnlineFriends at a fixed interval.
type PresenceService struct {
	rdb     *redis.Client
	follows repository.FollowRepository
	ttl     time.Duration
	now     func() time.Time
}

func NewPresenceService(rdb *redis.Client, follows repository.FollowRepository, ttl time.Duration) *PresenceService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PresenceService{rdb: rdb, follows: follows, ttl: ttl, now: time.Now}
}

func presenceKey(userID string) string { return fmt.Sprintf("presence:%s", userID) }

// Heartbeat marks the user online for one TTL.
func (s *PresenceService) Heartbeat(ctx context.Context, userID string) error {
	ts := strconv.FormatInt(s.now().Unix(), 10)
	return s.rdb.Set(ctx, presenceKey(userID), ts, s.ttl).Err()
}

// Leave clears the user's presence immediately.
func (s *PresenceService) Leave(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, presenceKey(userID)).Err()
}

// OnlineFriends returns the followees of userID that are currently online.
// It only reads, so repeated polls are idempotent.
func (s *PresenceService) OnlineFriends(ctx context.Context, userID string) ([]Presence, error) {
	ids, err := s.follows.ListFolloweeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load followees: %w", err)
	}
	if len(ids) == 0 {
		return []Presence{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = presenceKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget presence: %w", err)
	}

	out := make([]Presence, 0, len(ids))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		sec, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Presence{UserID: ids[i], LastSeen: time.Unix(sec, 0).UTC()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
