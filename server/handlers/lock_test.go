package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLockUserPrunesEntries(t *testing.T) {
	h := &Handler{locks: make(map[string]*userLock)}
	id := primitive.NewObjectID()

	unlock := h.lockUser(id)
	h.locksMu.Lock()
	assert.Len(t, h.locks, 1)
	h.locksMu.Unlock()

	unlock()
	h.locksMu.Lock()
	assert.Empty(t, h.locks)
	h.locksMu.Unlock()
}

func TestLockUserKeepsEntryWhileContended(t *testing.T) {
	h := &Handler{locks: make(map[string]*userLock)}
	id := primitive.NewObjectID()

	first := h.lockUser(id)

	acquired := make(chan func())
	go func() {
		acquired <- h.lockUser(id)
	}()

	// Wait until the second holder has registered and is blocked.
	require.Eventually(t, func() bool {
		h.locksMu.Lock()
		defer h.locksMu.Unlock()
		l, ok := h.locks[id.Hex()]
		return ok && l.refs == 2
	}, time.Second, time.Millisecond)

	first()
	second := <-acquired

	// The waiter took over; the entry must survive the first release.
	h.locksMu.Lock()
	assert.Len(t, h.locks, 1)
	h.locksMu.Unlock()

	second()
	h.locksMu.Lock()
	assert.Empty(t, h.locks)
	h.locksMu.Unlock()
}

func TestLockUserIndependentUsers(t *testing.T) {
	h := &Handler{locks: make(map[string]*userLock)}

	unlockA := h.lockUser(primitive.NewObjectID())
	unlockB := h.lockUser(primitive.NewObjectID())

	h.locksMu.Lock()
	assert.Len(t, h.locks, 2)
	h.locksMu.Unlock()

	unlockA()
	unlockB()
	h.locksMu.Lock()
	assert.Empty(t, h.locks)
	h.locksMu.Unlock()
}
