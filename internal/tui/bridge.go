package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/skillroute/internal/app"
)

// bridgeBuffer bounds queued coordinator events.
const bridgeBuffer = 64

// Bridge carries coordinator callbacks into the bubbletea update loop.
// It implements app.Confirmer and app.Notifier and accepts snapshot publications.
type Bridge struct {
	events chan tea.Msg
}

// confirmRequestMsg asks the model to show the confirm modal.
type confirmRequestMsg struct {
	prompt app.Prompt
	reply  chan<- bool
}

// notificationMsg delivers one toast.
type notificationMsg struct {
	notification app.Notification
}

// snapshotMsg delivers one coordinator state change.
type snapshotMsg struct {
	snap app.Snapshot
}

// NewBridge returns an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{events: make(chan tea.Msg, bridgeBuffer)}
}

// Notify queues a toast. A full queue drops the notification.
func (b *Bridge) Notify(n app.Notification) {
	b.offer(notificationMsg{notification: n})
}

// Publish queues a snapshot. A full queue drops it; mutation results re-read state.
func (b *Bridge) Publish(snap app.Snapshot) {
	b.offer(snapshotMsg{snap: snap})
}

// Confirm shows the modal and blocks until the user answers or ctx ends.
func (b *Bridge) Confirm(ctx context.Context, prompt app.Prompt) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case b.events <- confirmRequestMsg{prompt: prompt, reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (b *Bridge) offer(msg tea.Msg) {
	select {
	case b.events <- msg:
	default:
	}
}

// wait returns a command that yields the next bridge event.
func (b *Bridge) wait() tea.Cmd {
	if b == nil {
		return nil
	}
	return func() tea.Msg {
		return <-b.events
	}
}
