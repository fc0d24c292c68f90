package audit

import (
	"context"
	"time"

	"recoveryregister/pkg/requestcontext"
)

// Publisher accepts audit events for delivery to a sink. Implementations
// must tolerate duplicate delivery but never drop silently.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Stamp fills the derivable fields from the request context before the
// event is handed to a Publisher.
func Stamp(ctx context.Context, event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC().Truncate(time.Millisecond)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return event
}
