package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishRejectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 连接为空：已取消的 ctx 必须在触达连接之前返回
	p := &NATSPublisher{subject: "content.visibility_changed"}
	err := p.PublishVisibilityChanged(ctx, VisibilityChanged{Kind: "thread", ID: "t1", ChangedAt: time.Now()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishVisibilityChanged(context.Background(), VisibilityChanged{ID: "t1"}))
	p.Close()
}
