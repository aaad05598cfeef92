package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/classmate/pkg/response"
)

// Health 存活检查
// @Summary 健康检查
// @Tags 系统
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
