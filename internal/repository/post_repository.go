package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/model"
)

// PostRepository 短视频流，按 created_at 做 keyset 分页
type PostRepository interface {
	// FindPage 返回游标之后的一页以及下一页游标（没有更多时为空）。
	// cursor 为上一页最后一条的 ID，下一页条件为 created_at < 该条的 created_at；
	// 边界上时间戳相同的内容会被跳过，这是已知限制。
	FindPage(ctx context.Context, pred feed.Predicate, cursor string, limit int) ([]feed.Item, string, error)
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

type postRow struct {
	model.Post
	AuthorSchoolID *string
}

func (r *postRepository) FindPage(ctx context.Context, pred feed.Predicate, cursor string, limit int) ([]feed.Item, string, error) {
	var before *time.Time
	if cursor != "" {
		t, err := r.boundary(ctx, cursor)
		if err != nil {
			return nil, "", err
		}
		before = &t
	}
	if pred.IsEmpty() || limit <= 0 {
		return []feed.Item{}, "", nil
	}

	q := r.db.WithContext(ctx).
		Table("posts").
		Select("posts.*, users.school_id AS author_school_id").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.visible = ?", true)
	if before != nil {
		q = q.Where("posts.created_at < ?", *before)
	}
	q = applyPredicate(q, "posts", pred)

	// 多取一条判断是否还有下一页
	var rows []postRow
	if err := q.Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit + 1).
		Scan(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("query posts: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	items := make([]feed.Item, len(rows))
	for i, row := range rows {
		items[i] = feed.Post{
			Header: feed.Header{
				ID:             row.ID,
				AuthorID:       row.AuthorID,
				AuthorSchoolID: row.AuthorSchoolID,
				CreatedAt:      row.CreatedAt,
			},
			Caption:  row.Caption,
			VideoURL: row.VideoURL,
		}
	}
	return items, feed.NextCursor(items, hasMore), nil
}

// boundary 解析游标对应的时间点；游标所指内容被隐藏后仍可作为边界
func (r *postRepository) boundary(ctx context.Context, cursor string) (time.Time, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Select("id", "created_at").Where("id = ?", cursor).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, fmt.Errorf("%w: %s", feed.ErrInvalidCursor, cursor)
	}
	if err != nil {
		return time.Time{}, err
	}
	return p.CreatedAt, nil
}
