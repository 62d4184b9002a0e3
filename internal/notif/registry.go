package notif

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cleanuptracker/internal/common"
)

// Registry maps each connected user to its current live channel. The last
// registration for a user wins.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Channel
	byChan map[string]string // channel id -> user id
	log    *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		byUser: make(map[string]Channel),
		byChan: make(map[string]string),
		log:    log.Named("registry"),
	}
}

func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// a channel identifies as at most one user
	if prevUser, ok := r.byChan[ch.ID()]; ok && prevUser != userID {
		if cur, ok := r.byUser[prevUser]; ok && cur.ID() == ch.ID() {
			delete(r.byUser, prevUser)
		}
	}

	if prev, ok := r.byUser[userID]; ok && prev.ID() != ch.ID() {
		delete(r.byChan, prev.ID())
		r.log.Debugw("channel superseded", "user", userID, "old", prev.ID(), "new", ch.ID())
	}

	r.byUser[userID] = ch
	r.byChan[ch.ID()] = userID
}

// Unregister forgets ch. It reports false when ch was never registered or has
// already been superseded by a newer channel for the same user.
func (r *Registry) Unregister(ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byChan[ch.ID()]
	if !ok {
		return false
	}
	delete(r.byChan, ch.ID())

	if cur, ok := r.byUser[userID]; ok && cur.ID() == ch.ID() {
		delete(r.byUser, userID)
		return true
	}
	return false
}

func (r *Registry) Lookup(userID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.byUser[userID]
	return ch, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// BroadcastAll sends msg to every registered channel and returns how many
// accepted it. A failing channel never stops delivery to the others.
func (r *Registry) BroadcastAll(msg common.Envelope) int {
	r.mu.RLock()
	targets := make(map[string]Channel, len(r.byUser))
	for userID, ch := range r.byUser {
		targets[userID] = ch
	}
	r.mu.RUnlock()

	sent := 0
	for userID, ch := range targets {
		if err := sendSafely(ch, msg); err != nil {
			r.log.Warnw("broadcast failed", "user", userID, "channel", ch.ID(), "type", msg.Type, "error", err)
			continue
		}
		sent++
	}
	return sent
}

func sendSafely(ch Channel, msg common.Envelope) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.ID(), p)
		}
	}()
	return ch.Send(msg)
}
