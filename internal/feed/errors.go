package feed

import "errors"

var (
	// ErrUnauthenticated 没有有效的访问者身份；调用方应返回空信息流而不是报错
	ErrUnauthenticated = errors.New("unauthenticated viewer")
	// ErrAllSourcesFailed 所有内容源查询均失败，可重试
	ErrAllSourcesFailed = errors.New("all feed sources failed")
	// ErrInvalidCursor 游标无法解析或指向不存在的内容
	ErrInvalidCursor = errors.New("invalid feed cursor")
)
