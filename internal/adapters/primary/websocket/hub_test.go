package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(h *Hub) *Client {
	c := NewClient(h, nil, h.logger)
	h.registerClient(c)
	return c
}

func receive(t *testing.T, c *Client) domain.Event {
	t.Helper()
	select {
	case event := <-c.Send:
		return event
	case <-time.After(time.Second):
		t.Fatal("expected an event")
		return domain.Event{}
	}
}

func assertNothingQueued(t *testing.T, c *Client) {
	t.Helper()
	select {
	case event := <-c.Send:
		t.Fatalf("unexpected event %s", event.Type)
	default:
	}
}

func TestHub_UnscopedEventsReachEveryClient(t *testing.T) {
	h := newTestHub()
	a, b := newTestClient(h), newTestClient(h)

	h.broadcastEvent(domain.Event{Type: domain.EventTopicCreated})

	assert.Equal(t, domain.EventTopicCreated, receive(t, a).Type)
	assert.Equal(t, domain.EventTopicCreated, receive(t, b).Type)
}

func TestHub_MessageEventsReachOnlyTicketRoom(t *testing.T) {
	h := newTestHub()
	subscriber, other := newTestClient(h), newTestClient(h)
	ticketID := uuid.New()

	h.subscribeClientToTicket(subscriber, ticketID)
	assert.Equal(t, 1, h.GetClientsInRoom(ticketID))
	assert.True(t, subscriber.HasSubscription(ticketID))

	h.broadcastEvent(domain.Event{Type: domain.EventMessageCreated, TicketID: &ticketID})

	assert.Equal(t, domain.EventMessageCreated, receive(t, subscriber).Type)
	assertNothingQueued(t, other)

	h.unsubscribeClientFromTicket(subscriber, ticketID)
	assert.Equal(t, 0, h.GetRoomCount())

	h.broadcastEvent(domain.Event{Type: domain.EventMessageCreated, TicketID: &ticketID})
	assertNothingQueued(t, subscriber)
}

func TestHub_UnregisterLeavesRoomsAndClosesSend(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h)
	ticketID := uuid.New()
	h.subscribeClientToTicket(c, ticketID)

	h.unregisterClient(c)
	h.unregisterClient(c)

	assert.Equal(t, 0, h.GetClientCount())
	assert.Equal(t, 0, h.GetRoomCount())
	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_LeaveAndJoinAfterShutdown(t *testing.T) {
	h := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := NewClient(h, nil, h.logger)
	require.True(t, h.Join(c))
	cancel()
	<-stopped

	_, open := <-c.Send
	assert.False(t, open)

	left := make(chan struct{})
	go func() {
		h.Leave(c)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("Leave blocked on a stopped hub")
	}

	assert.False(t, h.Join(NewClient(h, nil, h.logger)))
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := newTestHub()
	newTestClient(h)

	for i := 0; i < sendBufferSize; i++ {
		h.broadcastEvent(domain.Event{Type: domain.EventTicketUpdated})
	}
	assert.Equal(t, 1, h.GetClientCount())

	h.broadcastEvent(domain.Event{Type: domain.EventTicketUpdated})
	assert.Equal(t, 0, h.GetClientCount())
}

func TestClient_HandleIncomingMessage(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h)
	ticketID := uuid.New()

	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketId":"` + ticketID.String() + `"}}`))
	assert.True(t, c.HasSubscription(ticketID))

	c.handleIncomingMessage([]byte(`{"type":"SUBSCRIBE_TO_TICKET","payload":{"ticketId":"42"}}`))
	c.handleIncomingMessage([]byte(`not json`))
	assert.Len(t, c.GetSubscriptions(), 1)

	c.handleIncomingMessage([]byte(`{"type":"PING"}`))
	assert.Equal(t, domain.EventPong, receive(t, c).Type)

	c.handleIncomingMessage([]byte(`{"type":"UNSUBSCRIBE_FROM_TICKET","payload":{"ticketId":"` + ticketID.String() + `"}}`))
	assert.False(t, c.HasSubscription(ticketID))
}

func TestEncodeEvent(t *testing.T) {
	ticketID := uuid.New()
	msg := &domain.TicketMessage{
		ID:         uuid.New(),
		TicketID:   ticketID,
		AuthorType: domain.AuthorPlayer,
		Body:       "still broken",
		CreatedAt:  time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}

	frame, err := EncodeEvent(domain.Event{Type: domain.EventMessageCreated, Payload: msg, TicketID: &ticketID})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(frame, &decoded))
	assert.Equal(t, "message.created", decoded["type"])
	assert.Equal(t, ticketID.String(), decoded["ticketId"])

	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "player", payload["authorType"])
	assert.Equal(t, "2026-10-16T09:00:00.000Z", payload["createdAt"])

	pong, err := EncodeEvent(domain.Event{Type: domain.EventPong})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PONG"}`, string(pong))
}
