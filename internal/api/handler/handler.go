package handler

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/d60-Lab/classmate/internal/service"
)

// Handler 聚合所有 HTTP 接口依赖
type Handler struct {
	resolver     service.ScopeResolver
	feedService  service.FeedService
	relService   service.RelationshipService
	modService   service.ModerationService
	presence     *service.PresenceService
	pollInterval time.Duration
	upgrader     websocket.Upgrader
}

type Deps struct {
	Resolver     service.ScopeResolver
	Feed         service.FeedService
	Relationship service.RelationshipService
	Moderation   service.ModerationService
	Presence     *service.PresenceService
	PollInterval time.Duration
}

func New(d Deps) *Handler {
	if d.PollInterval <= 0 {
		d.PollInterval = 15 * time.Second
	}
	return &Handler{
		resolver:     d.Resolver,
		feedService:  d.Feed,
		relService:   d.Relationship,
		modService:   d.Moderation,
		presence:     d.Presence,
		pollInterval: d.PollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}
