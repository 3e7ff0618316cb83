// Package notify 通过 Redis Pub/Sub 向用户推送异步任务结果，WebSocket 连接订阅同一频道后转发给前端。
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	StatusCompleted = "completed"
	StatusError     = "error"

	TypeExport = "export"
)

// Message 是推送给前端的统一消息，字段名与前端解析保持一致。
type Message struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	ExportID      string `json:"export_id,omitempty"`
	ResumeID      string `json:"resume_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Channel 返回用户的通知频道名。
func Channel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

type Publisher struct {
	client redis.UniversalClient
}

func NewPublisher(client redis.UniversalClient) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, userID uint, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	channel := Channel(userID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish notification to %q: %w", channel, err)
	}
	return nil
}
