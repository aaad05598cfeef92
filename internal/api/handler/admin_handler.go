package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/classmate/internal/api/middleware"
	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/internal/service"
	"github.com/d60-Lab/classmate/pkg/response"
)

type visibilityRequest struct {
	Visible *bool `json:"visible" binding:"required"`
}

// SetVisibility 管理员隐藏或恢复内容，下次拉取信息流生效
// @Summary 切换内容可见性
// @Tags 审核
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "thread|review|bounty|resource|post"
// @Param id path string true "内容ID"
// @Param request body visibilityRequest true "可见性"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/content/{kind}/{id}/visibility [patch]
func (h *Handler) SetVisibility(c *gin.Context) {
	kind, ok := feed.ParseKind(c.Param("kind"))
	if !ok {
		response.BadRequest(c, "unknown content kind")
		return
	}
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id := c.Param("id")
	err := h.modService.SetVisibility(c.Request.Context(), middleware.ViewerID(c), kind, id, *req.Visible)
	switch {
	case err == nil:
		response.Success(c, gin.H{"kind": kind, "id": id, "visible": *req.Visible})
	case errors.Is(err, service.ErrUnknownContent):
		response.NotFound(c, "content not found")
	default:
		response.InternalError(c, err)
	}
}
