package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/internal/events"
	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/pkg/logger"
)

var ErrUnknownContent = errors.New("unknown content")

// ModerationService 管理员隐藏/恢复内容。信息流不做失效处理，下次拉取即生效。
type ModerationService interface {
	SetVisibility(ctx context.Context, actorID string, kind feed.Kind, id string, visible bool) error
}

type moderationService struct {
	content   repository.ContentRepository
	publisher events.Publisher
	now       func() time.Time
}

func NewModerationService(content repository.ContentRepository, publisher events.Publisher) ModerationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &moderationService{content: content, publisher: publisher, now: time.Now}
}

func (s *moderationService) SetVisibility(ctx context.Context, actorID string, kind feed.Kind, id string, visible bool) error {
	if err := s.content.SetVisibility(ctx, kind, id, visible); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownContent
		}
		return err
	}
	logger.Info("content visibility changed",
		zap.String("kind", string(kind)), zap.String("id", id),
		zap.Bool("visible", visible), zap.String("actor", actorID))

	evt := events.VisibilityChanged{Kind: string(kind), ID: id, Visible: visible, ActorID: actorID, ChangedAt: s.now().UTC()}
	if err := s.publisher.PublishVisibilityChanged(ctx, evt); err != nil {
		// 事件是通知性质，发布失败不回滚审核结果
		logger.Warn("publish visibility event failed", zap.String("id", id), zap.Error(err))
	}
	return nil
}
