// Package events publishes moderation changes to other processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// VisibilityChanged 内容可见性被管理员切换
type VisibilityChanged struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Visible   bool      `json:"visible"`
	ActorID   string    `json:"actor_id"`
	ChangedAt time.Time `json:"changed_at"`
}

type Publisher interface {
	PublishVisibilityChanged(ctx context.Context, evt VisibilityChanged) error
	Close()
}

// NATSPublisher 以 JSON 形式发布到固定 subject
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("classmate"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

// PublishVisibilityChanged 为即发即弃；nats Publish 不接收 ctx，只在发送前检查是否已取消
func (p *NATSPublisher) PublishVisibilityChanged(ctx context.Context, evt VisibilityChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Nop 未配置 NATS 时使用
type Nop struct{}

func (Nop) PublishVisibilityChanged(context.Context, VisibilityChanged) error { return nil }
func (Nop) Close()                                                           {}
