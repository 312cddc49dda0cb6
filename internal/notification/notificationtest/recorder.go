// Package notificationtest records outbound messages for assertions.
package notificationtest

import (
	"context"
	"sync"

	"NoticeBoard/internal/notification"
)

type Recorder struct {
	mu   sync.Mutex
	sent []notification.Message

	// Err, when set, fails every Send without recording.
	Err error
}

func (r *Recorder) Send(_ context.Context, msg notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []notification.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Message(nil), r.sent...)
}

// Last returns the most recent message sent to addr.
func (r *Recorder) Last(addr string) (notification.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].To == addr {
			return r.sent[i], true
		}
	}
	return notification.Message{}, false
}

var _ notification.Sender = (*Recorder)(nil)
