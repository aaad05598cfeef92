package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/classmate/internal/api/middleware"
	"github.com/d60-Lab/classmate/internal/feed"
	"github.com/d60-Lab/classmate/pkg/response"
)

// ItemDTO 信息流条目；kind 决定其余字段
type ItemDTO struct {
	Kind           string    `json:"kind"`
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorSchoolID *string   `json:"author_school_id,omitempty"`
	CourseID       *string   `json:"course_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	Title    string `json:"title,omitempty"`
	Body     string `json:"body,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Reward   int64  `json:"reward,omitempty"`
	URL      string `json:"url,omitempty"`
	Caption  string `json:"caption,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

type PageDTO struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
	Partial    bool      `json:"partial,omitempty"`
}

func toItemDTO(it feed.Item) ItemDTO {
	h := feed.HeaderOf(it)
	dto := ItemDTO{
		Kind:           string(it.Kind()),
		ID:             h.ID,
		AuthorID:       h.AuthorID,
		AuthorSchoolID: h.AuthorSchoolID,
		CourseID:       h.CourseID,
		CreatedAt:      h.CreatedAt,
	}
	switch v := it.(type) {
	case feed.Thread:
		dto.Title, dto.Body = v.Title, v.Body
	case feed.Review:
		dto.Rating, dto.Body = v.Rating, v.Body
	case feed.Bounty:
		dto.Title, dto.Reward = v.Title, v.Reward
	case feed.Resource:
		dto.Title, dto.URL = v.Title, v.URL
	case feed.Post:
		dto.Caption, dto.VideoURL = v.Caption, v.VideoURL
	}
	return dto
}

func toPageDTO(p feed.Page) PageDTO {
	items := make([]ItemDTO, len(p.Items))
	for i, it := range p.Items {
		items[i] = toItemDTO(it)
	}
	return PageDTO{Items: items, NextCursor: p.NextCursor, Partial: p.Partial}
}

// resolveScope 匿名访问者直接返回空信息流（200），ok=false 时响应已写出
func (h *Handler) resolveScope(c *gin.Context) (feed.Scope, bool) {
	scope, err := h.resolver.Resolve(c.Request.Context(), middleware.ViewerID(c))
	if err != nil {
		h.renderFeedError(c, err)
		return feed.Scope{}, false
	}
	return scope, true
}

func (h *Handler) renderFeedError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, feed.ErrUnauthenticated):
		response.Success(c, toPageDTO(feed.EmptyPage()))
	case errors.Is(err, feed.ErrInvalidCursor):
		response.BadRequest(c, "invalid cursor")
	case errors.Is(err, feed.ErrAllSourcesFailed):
		_ = c.Error(err)
		response.Unavailable(c, "feed temporarily unavailable")
	default:
		response.InternalError(c, err)
	}
}

// DiscussionFeed 讨论流
// @Summary 讨论流（同校或所选课程的帖子、评价、悬赏、资料）
// @Tags 信息流
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=PageDTO}
// @Failure 503 {object} response.Response
// @Router /api/v1/feed/discussion [get]
func (h *Handler) DiscussionFeed(c *gin.Context) {
	scope, ok := h.resolveScope(c)
	if !ok {
		return
	}
	page, err := h.feedService.DiscussionFeed(c.Request.Context(), scope)
	if err != nil {
		h.renderFeedError(c, err)
		return
	}
	response.Success(c, toPageDTO(page))
}

// PersonalizedFeed 个性化流
// @Summary 个性化流（关注、同校或所选课程）
// @Tags 信息流
// @Produce json
// @Security BearerAuth
// @Param filter query string false "all 或 trending" default(all)
// @Success 200 {object} response.Response{data=PageDTO}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/feed/personalized [get]
func (h *Handler) PersonalizedFeed(c *gin.Context) {
	mode, ok := feed.ParseFilterMode(c.Query("filter"))
	if !ok {
		response.BadRequest(c, "filter must be all or trending")
		return
	}
	scope, ok := h.resolveScope(c)
	if !ok {
		return
	}
	page, err := h.feedService.PersonalizedFeed(c.Request.Context(), scope, mode)
	if err != nil {
		h.renderFeedError(c, err)
		return
	}
	response.Success(c, toPageDTO(page))
}

// MediaFeed 短视频流
// @Summary 短视频流（同校或关注的作者），游标分页
// @Tags 信息流
// @Produce json
// @Security BearerAuth
// @Param cursor query string false "上一页返回的 next_cursor"
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=PageDTO}
// @Failure 400 {object} response.Response
// @Router /api/v1/feed/media [get]
func (h *Handler) MediaFeed(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	scope, ok := h.resolveScope(c)
	if !ok {
		return
	}
	page, err := h.feedService.MediaFeed(c.Request.Context(), scope, c.Query("cursor"), limit)
	if err != nil {
		h.renderFeedError(c, err)
		return
	}
	response.Success(c, toPageDTO(page))
}
