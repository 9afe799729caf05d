package goSpace

import (
	"context"
	"io"
	"time"

	"github.com/MrEthical07/goSpace/internal/notify"
	"github.com/google/uuid"
)

// Notification event types emitted by the Engine.
const (
	EventConnected     = "connected"
	EventAuthenticated = "authenticated"
	EventLoggedOut     = "loggedOut"
	EventSpaceOpened   = "spaceOpened"
	EventSpaceClosed   = "spaceClosed"
	EventLoginFailed   = "loginFailed"
)

// Event is a lifecycle notification delivered to the NotificationSink.
type Event = notify.Event

// NotificationSink receives lifecycle notifications. The host transport
// implements it to forward events to connected callers.
type NotificationSink = notify.Sink

// NoOpSink drops every notification.
type NoOpSink = notify.NoOpSink

// ChannelSink buffers notifications in a channel; see Events.
type ChannelSink = notify.ChannelSink

// JSONWriterSink writes one JSON notification per line.
type JSONWriterSink = notify.JSONWriterSink

// MultiSink fans a notification out to several sinks.
type MultiSink = notify.MultiSink

// NewChannelSink creates a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return notify.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return notify.NewJSONWriterSink(w)
}

func (e *Engine) emit(ctx context.Context, eventType string, step Step, fill func(*Event)) {
	if e == nil || e.notifier == nil {
		return
	}
	ev := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Step:      step.String(),
	}
	if fill != nil {
		fill(&ev)
	}
	e.notifier.Emit(ctx, ev)
}
