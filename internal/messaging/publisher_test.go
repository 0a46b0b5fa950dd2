package messaging_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shorturl/internal/messaging"
	"github.com/serroba/shorturl/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closed     bool
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return m.closeErr
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes registration event", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[registry.RegisteredEvent](mock, registry.TopicRegistered)

		err := publish(&registry.RegisteredEvent{
			ShortCode:   123456,
			OriginalURL: "https://example.com",
			CreatedAt:   time.Now(),
		})

		require.NoError(t, err)
		assert.Equal(t, registry.TopicRegistered, mock.topic)
		require.Len(t, mock.messages, 1)
		assert.Contains(t, string(mock.messages[0].Payload), `"shortUrl":123456`)
		assert.Equal(t, registry.TopicRegistered, mock.messages[0].Metadata.Get("topic"))
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		publish := messaging.NewPublishFunc[registry.RegisteredEvent](mock, registry.TopicRegistered)

		err := publish(&registry.RegisteredEvent{ShortCode: 1})

		assert.Error(t, err)
	})
}

func TestDiscard(t *testing.T) {
	publish := messaging.Discard[registry.RegisteredEvent]()

	assert.NoError(t, publish(&registry.RegisteredEvent{ShortCode: 1}))
}
