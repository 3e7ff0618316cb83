package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel(t *testing.T) {
	assert.Equal(t, "user_notify:42", Channel(42))
}

func TestPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, Channel(7))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	err = NewPublisher(client).Publish(ctx, 7, Message{
		Type:     TypeExport,
		Status:   StatusCompleted,
		ExportID: "exp-1",
		ResumeID: "res-1",
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var got Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "exp-1", got.ExportID)
		assert.Equal(t, StatusCompleted, got.Status)
		assert.NotContains(t, msg.Payload, "error_message")
	case <-ctx.Done():
		t.Fatal("notification not delivered")
	}
}
