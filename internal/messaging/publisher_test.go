package messaging_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
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
	return m.closeErr
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes a challenge-issued event to its topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[auth.ChallengeIssuedEvent](mock, auth.TopicChallengeIssued)

		event := &auth.ChallengeIssuedEvent{
			Email:    "a@x.com",
			Token:    "captoken",
			IssuedAt: time.Now(),
		}

		err := publish(event)

		require.NoError(t, err)
		assert.Equal(t, auth.TopicChallengeIssued, mock.topic)
		require.Len(t, mock.messages, 1)
		assert.Contains(t, string(mock.messages[0].Payload), `"email":"a@x.com"`)
		assert.Contains(t, string(mock.messages[0].Payload), `"token":"captoken"`)
	})

	t.Run("returns the publisher's error", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("stream unavailable")}
		publish := messaging.NewPublishFunc[auth.ChallengeIssuedEvent](mock, auth.TopicChallengeIssued)

		err := publish(&auth.ChallengeIssuedEvent{Email: "a@x.com"})

		assert.Error(t, err)
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("exposes the wrapped publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Equal(t, mock, group.Publisher())
	})

	t.Run("shutdown closes the publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		err := group.Shutdown()

		require.NoError(t, err)
	})

	t.Run("shutdown surfaces the close error", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		group := messaging.NewPublisherGroup(mock)

		err := group.Shutdown()

		assert.Error(t, err)
	})
}
