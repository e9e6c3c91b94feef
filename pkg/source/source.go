// Package source feeds the pipeline. A source watches some upstream (a task
// file on disk, a GitHub repository, a NATS subject) and turns whatever it
// observes into update notifications carrying both the event payload and the
// view context in force when the payload was produced.
package source

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tidemill/boardd/pkg/board"
	"github.com/tidemill/boardd/pkg/view"
)

// Notification is one update from a source. The context snapshot travels
// with the event so resolution always sees the configuration that was
// current when the data was read, not whatever it is by render time.
type Notification struct {
	// ID uniquely identifies this notification in logs.
	ID string

	// Source is the name of the producing source.
	Source string

	// Event is the update payload.
	Event board.UpdateEvent

	// Context is the view context snapshot for this update.
	Context view.Context

	// Time the notification was produced.
	Time time.Time
}

// newNotification stamps a notification with identity and time.
func newNotification(source string, event board.UpdateEvent, vctx view.Context) Notification {
	return Notification{
		ID:      uuid.New().String(),
		Source:  source,
		Event:   event,
		Context: vctx,
		Time:    time.Now(),
	}
}

// Source produces update notifications until stopped.
//
// Start begins watching in a background goroutine and may perform an initial
// read so a board shows without waiting for the first upstream change. Stop
// is idempotent. The notifications channel is never closed by Stop; callers
// select on it together with their own done channel.
type Source interface {
	// Name identifies the source in logs and notifications.
	Name() string

	// Start begins producing notifications.
	Start(ctx context.Context) error

	// Notifications returns the channel updates arrive on.
	Notifications() <-chan Notification

	// Stop stops the source and releases its resources.
	Stop()
}
