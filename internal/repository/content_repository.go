package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/model"
)

// ContentRepository 讨论类内容（帖子、评价、悬赏、资料）的只读查询与审核开关
type ContentRepository interface {
	// FindRecent 返回某类内容中满足范围条件且可见的最新 limit 条，按 created_at 倒序
	FindRecent(ctx context.Context, kind feed.Kind, pred feed.Predicate, limit int) ([]feed.Item, error)
	// SetVisibility 切换可见性，任意 kind（含 post）均可
	SetVisibility(ctx context.Context, kind feed.Kind, id string, visible bool) error
}

type contentRepository struct{ db *gorm.DB }

func NewContentRepository(db *gorm.DB) ContentRepository { return &contentRepository{db: db} }

// 查询行附带作者所属学校，用于范围判断与展示
type threadRow struct {
	model.Thread
	AuthorSchoolID *string
}

type reviewRow struct {
	model.Review
	AuthorSchoolID *string
}

type bountyRow struct {
	model.Bounty
	AuthorSchoolID *string
}

type resourceRow struct {
	model.Resource
	AuthorSchoolID *string
}

func tableOf(kind feed.Kind) (string, error) {
	switch kind {
	case feed.KindThread:
		return model.Thread{}.TableName(), nil
	case feed.KindReview:
		return model.Review{}.TableName(), nil
	case feed.KindBounty:
		return model.Bounty{}.TableName(), nil
	case feed.KindResource:
		return model.Resource{}.TableName(), nil
	case feed.KindPost:
		return model.Post{}.TableName(), nil
	}
	return "", fmt.Errorf("unknown content kind %q", kind)
}

func (r *contentRepository) FindRecent(ctx context.Context, kind feed.Kind, pred feed.Predicate, limit int) ([]feed.Item, error) {
	// 空范围不查询，也绝不退化为全站内容
	if pred.IsEmpty() || limit <= 0 {
		return []feed.Item{}, nil
	}

	switch kind {
	case feed.KindThread:
		rows, err := scanRecent[threadRow](ctx, r.db, model.Thread{}.TableName(), pred, limit)
		if err != nil {
			return nil, err
		}
		items := make([]feed.Item, len(rows))
		for i, row := range rows {
			items[i] = feed.Thread{Header: header(row.ContentMeta, row.AuthorSchoolID), Title: row.Title, Body: row.Body}
		}
		return items, nil
	case feed.KindReview:
		rows, err := scanRecent[reviewRow](ctx, r.db, model.Review{}.TableName(), pred, limit)
		if err != nil {
			return nil, err
		}
		items := make([]feed.Item, len(rows))
		for i, row := range rows {
			items[i] = feed.Review{Header: header(row.ContentMeta, row.AuthorSchoolID), Rating: row.Rating, Body: row.Body}
		}
		return items, nil
	case feed.KindBounty:
		rows, err := scanRecent[bountyRow](ctx, r.db, model.Bounty{}.TableName(), pred, limit)
		if err != nil {
			return nil, err
		}
		items := make([]feed.Item, len(rows))
		for i, row := range rows {
			items[i] = feed.Bounty{Header: header(row.ContentMeta, row.AuthorSchoolID), Title: row.Title, Reward: row.Reward}
		}
		return items, nil
	case feed.KindResource:
		rows, err := scanRecent[resourceRow](ctx, r.db, model.Resource{}.TableName(), pred, limit)
		if err != nil {
			return nil, err
		}
		items := make([]feed.Item, len(rows))
		for i, row := range rows {
			items[i] = feed.Resource{Header: header(row.ContentMeta, row.AuthorSchoolID), Title: row.Title, URL: row.URL}
		}
		return items, nil
	}
	return nil, fmt.Errorf("find recent: unsupported kind %q", kind)
}

func (r *contentRepository) SetVisibility(ctx context.Context, kind feed.Kind, id string, visible bool) error {
	table, err := tableOf(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		Update("visible", visible)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecent[R any](ctx context.Context, db *gorm.DB, table string, pred feed.Predicate, limit int) ([]R, error) {
	q := db.WithContext(ctx).
		Table(table).
		Select(table + ".*, users.school_id AS author_school_id").
		Joins("JOIN users ON users.id = " + table + ".author_id").
		Where(table+".visible = ?", true)
	q = applyPredicate(q, table, pred)

	var rows []R
	err := q.Order(table + ".created_at DESC").
		Order(table + ".id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return rows, nil
}

// applyPredicate 把范围条件拼成 (school OR course OR author) [AND created_at >= since]
func applyPredicate(q *gorm.DB, table string, pred feed.Predicate) *gorm.DB {
	var (
		conds []string
		args  []interface{}
	)
	if pred.SchoolID != nil {
		conds = append(conds, "users.school_id = ?")
		args = append(args, *pred.SchoolID)
	}
	if len(pred.CourseIDs) > 0 {
		conds = append(conds, table+".course_id IN ?")
		args = append(args, pred.CourseIDs)
	}
	if len(pred.AuthorIDs) > 0 {
		conds = append(conds, table+".author_id IN ?")
		args = append(args, pred.AuthorIDs)
	}
	q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	if pred.Since != nil {
		q = q.Where(table+".created_at >= ?", *pred.Since)
	}
	return q
}

func header(m model.ContentMeta, authorSchoolID *string) feed.Header {
	return feed.Header{
		ID:             m.ID,
		AuthorID:       m.AuthorID,
		AuthorSchoolID: authorSchoolID,
		CourseID:       m.CourseID,
		CreatedAt:      m.CreatedAt,
	}
}
