package services

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "pawmi-triage-backend/models"
)

func TestBroadcaster_DeliversPerConversation(t *testing.T) {
    b := NewBroadcaster(zap.NewNop())
    a, unsubA := b.Subscribe("a")
    defer unsubA()
    other, unsubOther := b.Subscribe("b")
    defer unsubOther()

    b.Publish(models.ChatMessage{ConversationID: "a", Text: "hola"})

    msg := <-a
    assert.Equal(t, "hola", msg.Text)
    assert.Empty(t, other)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
    b := NewBroadcaster(zap.NewNop())
    ch, unsubscribe := b.Subscribe("a")
    assert.Equal(t, 1, b.Subscribers("a"))

    unsubscribe()
    unsubscribe()

    _, open := <-ch
    assert.False(t, open)
    assert.Zero(t, b.Subscribers("a"))
    b.Publish(models.ChatMessage{ConversationID: "a"})
}

func TestBroadcaster_SlowSubscriberDoesNotBlock(t *testing.T) {
    b := NewBroadcaster(zap.NewNop())
    ch, unsubscribe := b.Subscribe("a")
    defer unsubscribe()

    for i := 0; i < subscriberBuffer+5; i++ {
        b.Publish(models.ChatMessage{ConversationID: "a"})
    }
    require.Len(t, ch, subscriberBuffer)
}
