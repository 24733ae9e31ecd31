package upload

import (
	"github.com/dmitrijs2005/receiptdesk/internal/models"
)

// Emitter publishes named events to an external observer. Delivery is
// fire-and-forget: implementations may drop events, and emit failures never
// fail the transfer that produced them.
type Emitter interface {
	Emit(event string, payload models.UploadProgress) error
}

// Broadcaster is a buffered-channel Emitter. Sends never block: when the
// observer is slow or absent the event is dropped, so a transfer is never
// stalled by progress delivery.
type Broadcaster struct {
	events chan models.UploadProgress
}

func NewBroadcaster(buffer int) *Broadcaster {
	return &Broadcaster{events: make(chan models.UploadProgress, buffer)}
}

func (b *Broadcaster) Emit(event string, payload models.UploadProgress) error {
	select {
	case b.events <- payload:
	default:
		// observer not keeping up, drop
	}
	return nil
}

// Events exposes the stream consumed by the observer (e.g. the UI layer).
func (b *Broadcaster) Events() <-chan models.UploadProgress {
	return b.events
}
