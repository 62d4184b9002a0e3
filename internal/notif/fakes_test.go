package notif

import (
	"sync"

	"cleanuptracker/internal/common"
)

type fakeChannel struct {
	id     string
	mu     sync.Mutex
	msgs   []common.Envelope
	err    error
	panics bool
}

func newFakeChannel(id string) *fakeChannel {
	return &fakeChannel{id: id}
}

func (f *fakeChannel) ID() string {
	return f.id
}

func (f *fakeChannel) Send(msg common.Envelope) error {
	if f.panics {
		panic("send on broken channel")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) received() []common.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]common.Envelope, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakeChannel) ofType(t common.MessageType) []common.Envelope {
	var out []common.Envelope
	for _, m := range f.received() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type fakeAnnouncer struct {
	mu        sync.Mutex
	announced []common.EventAnnouncement
}

func (a *fakeAnnouncer) Announce(ev common.EventAnnouncement) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, ev)
	return 0
}

func (a *fakeAnnouncer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.announced)
}
