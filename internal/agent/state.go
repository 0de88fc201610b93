package agent

import (
	"sync"

	"ingestbot/internal/domain"
)

// Checkpointer retains conversation state per thread for the life of the
// process. State is append-only: a run loads a snapshot, extends it, and
// saves the longer sequence back. Only one graph run owns a thread's state
// at a time; the lock here protects the map across threads, not the
// in-run sequence.
type Checkpointer struct {
	mu      sync.Mutex
	threads map[string][]domain.Message
}

func NewCheckpointer() *Checkpointer {
	return &Checkpointer{threads: make(map[string][]domain.Message)}
}

// Load returns a copy of the thread's message history. The copy keeps the
// stored slice immutable from the run's point of view until Save.
func (c *Checkpointer) Load(threadID string) []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := c.threads[threadID]
	msgs := make([]domain.Message, len(stored))
	copy(msgs, stored)
	return msgs
}

// Save replaces the thread's history with the extended sequence. Shorter
// sequences are rejected silently: history is never truncated or reordered.
func (c *Checkpointer) Save(threadID string, msgs []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(msgs) < len(c.threads[threadID]) {
		return
	}
	stored := make([]domain.Message, len(msgs))
	copy(stored, msgs)
	c.threads[threadID] = stored
}

// Len reports the number of messages stored for a thread.
func (c *Checkpointer) Len(threadID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.threads[threadID])
}
