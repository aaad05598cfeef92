package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/internal/api/middleware"
	"github.com/d60-Lab/classmate/internal/service"
	"github.com/d60-Lab/classmate/pkg/logger"
	"github.com/d60-Lab/classmate/pkg/response"
)

// Heartbeat 上报在线
// @Summary 在线心跳
// @Tags 在线状态
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/presence/heartbeat [post]
func (h *Handler) Heartbeat(c *gin.Context) {
	if err := h.presence.Heartbeat(c.Request.Context(), middleware.ViewerID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"poll_interval_seconds": int(h.pollInterval / time.Second)})
}

// OnlineFriends 在线的关注对象，供客户端定时轮询
// @Summary 在线好友
// @Tags 在线状态
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.Presence}
// @Failure 401 {object} response.Response
// @Router /api/v1/presence/friends [get]
func (h *Handler) OnlineFriends(c *gin.Context) {
	list, err := h.presence.OnlineFriends(c.Request.Context(), middleware.ViewerID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, list)
}

type presenceFrame struct {
	Online []service.Presence `json:"online"`
	At     time.Time          `json:"at"`
}

// PresenceStream 升级为 websocket，每个轮询周期推送一次在线好友快照。
// 连接期间同时刷新自己的心跳。
// @Summary 在线好友推送（websocket）
// @Tags 在线状态
// @Security BearerAuth
// @Router /api/v1/presence/stream [get]
func (h *Handler) PresenceStream(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写出错误响应
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 读协程只负责发现对端关闭
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	for {
		if err := h.pushPresence(ctx, conn, viewer); err != nil {
			logger.Debug("presence stream closed", zap.String("viewer", viewer), zap.Error(err))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) pushPresence(ctx context.Context, conn *websocket.Conn, viewer string) error {
	if err := h.presence.Heartbeat(ctx, viewer); err != nil {
		return err
	}
	list, err := h.presence.OnlineFriends(ctx, viewer)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(presenceFrame{Online: list, At: time.Now().UTC()})
}
