package notif

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cleanuptracker/internal/common"
)

func newTestRegistry(t *testing.T) *Registry {
	return NewRegistry(zaptest.NewLogger(t).Sugar())
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := newTestRegistry(t)
	ch := newFakeChannel("c1")

	r.Register("u1", ch)

	got, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c1", got.ID())
	assert.Equal(t, 1, r.Len())

	_, ok = r.Lookup("u2")
	assert.False(t, ok)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := newTestRegistry(t)
	first, second := newFakeChannel("c1"), newFakeChannel("c2")

	r.Register("u1", first)
	r.Register("u1", second)

	got, _ := r.Lookup("u1")
	assert.Equal(t, "c2", got.ID())
	assert.Equal(t, 1, r.Len())

	// the superseded channel's disconnect must not evict the newer one
	assert.False(t, r.Unregister(first))
	got, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", got.ID())

	assert.True(t, r.Unregister(second))
	_, ok = r.Lookup("u1")
	assert.False(t, ok)
}

func TestRegistry_ChannelReRegisteredUnderNewUser(t *testing.T) {
	r := newTestRegistry(t)
	ch := newFakeChannel("c1")

	r.Register("u1", ch)
	r.Register("u2", ch)

	_, ok := r.Lookup("u1")
	assert.False(t, ok)
	got, ok := r.Lookup("u2")
	require.True(t, ok)
	assert.Equal(t, "c1", got.ID())
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Unregister(ch))
	assert.Zero(t, r.Len())
}

func TestRegistry_UnregisterUnknown(t *testing.T) {
	r := newTestRegistry(t)
	assert.False(t, r.Unregister(newFakeChannel("never")))
}

func TestRegistry_BroadcastAllIsolatesFailures(t *testing.T) {
	r := newTestRegistry(t)
	healthy := newFakeChannel("ok")
	full := newFakeChannel("full")
	full.err = errors.New("buffer full")
	broken := newFakeChannel("broken")
	broken.panics = true

	r.Register("u1", healthy)
	r.Register("u2", full)
	r.Register("u3", broken)

	sent := r.BroadcastAll(common.Envelope{Type: common.MessageNewEvent, Data: "hello"})

	assert.Equal(t, 1, sent)
	require.Len(t, healthy.received(), 1)
	assert.Equal(t, common.MessageNewEvent, healthy.received()[0].Type)
}

func TestRegistry_BroadcastAllEmpty(t *testing.T) {
	r := newTestRegistry(t)
	assert.Zero(t, r.BroadcastAll(common.Envelope{Type: common.MessageNewEvent}))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := newFakeChannel(fmt.Sprintf("c%d", i))
			user := fmt.Sprintf("u%d", i%10)
			r.Register(user, ch)
			r.BroadcastAll(common.Envelope{Type: common.MessageNewEvent})
			r.Lookup(user)
			r.Unregister(ch)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, r.Len())
}
