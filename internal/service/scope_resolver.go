package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/repository"
)

// ScopeResolver 计算访问者可见范围：学校、有效选课、关注对象
type ScopeResolver interface {
	Resolve(ctx context.Context, viewerID string) (feed.Scope, error)
}

type scopeResolver struct {
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	follows     repository.FollowRepository
}

func NewScopeResolver(users repository.UserRepository, enrollments repository.EnrollmentRepository, follows repository.FollowRepository) ScopeResolver {
	return &scopeResolver{users: users, enrollments: enrollments, follows: follows}
}

// Resolve 只读；viewerID 为空或用户不存在时返回 feed.ErrUnauthenticated
func (r *scopeResolver) Resolve(ctx context.Context, viewerID string) (feed.Scope, error) {
	if viewerID == "" {
		return feed.Scope{}, feed.ErrUnauthenticated
	}
	user, err := r.users.GetByID(ctx, viewerID)
	if errors.Is(err, repository.ErrNotFound) {
		return feed.Scope{}, feed.ErrUnauthenticated
	}
	if err != nil {
		return feed.Scope{}, fmt.Errorf("load viewer: %w", err)
	}

	courseIDs, err := r.enrollments.ActiveCourseIDs(ctx, viewerID)
	if err != nil {
		return feed.Scope{}, fmt.Errorf("load enrollments: %w", err)
	}
	followeeIDs, err := r.follows.ListFolloweeIDs(ctx, viewerID)
	if err != nil {
		return feed.Scope{}, fmt.Errorf("load follows: %w", err)
	}
	return feed.NewScope(user.ID, user.SchoolID, courseIDs, followeeIDs), nil
}
