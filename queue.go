package offcache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/achu-1612/offcache/storage"
)

// QueueAction appends payload to the pending action queue.
// The returned action carries the generated id even when persisting failed.
func (c *cache) QueueAction(payload any) (PendingAction, Outcome) {
	action := PendingAction{
		ID:        uuid.NewString(),
		Timestamp: c.now().UnixMilli(),
	}

	if c.closed.Load() {
		c.l.Warnf("queue action %s on closed cache", action.ID)

		return action, OutcomeFailed
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		c.storeFailure("queue", fmt.Errorf("%w: encoding action %s: %v", ErrStoreWrite, action.ID, err))

		return action, OutcomeDegraded
	}

	action.Payload = raw

	c.mu.Lock()
	defer c.mu.Unlock()

	actions, err := c.readQueue()
	if err != nil {
		c.storeFailure("queue", err)

		// a queue that cannot be decoded is replaced; one that cannot be read is left alone
		if !errors.Is(err, errCorruptQueue) {
			return action, OutcomeDegraded
		}
	}

	actions = append(actions, action)

	if err := c.writeQueue(actions); err != nil {
		c.storeFailure("queue", err)

		return action, OutcomeDegraded
	}

	c.l.Debugf("queued action %s. queue length: %d", action.ID, len(actions))

	return action, OutcomeOK
}

// ListQueuedActions returns the queue in FIFO order, or an empty slice when
// the queue is empty or cannot be read.
func (c *cache) ListQueuedActions() []PendingAction {
	if c.closed.Load() {
		return []PendingAction{}
	}

	return c.queued()
}

func (c *cache) queued() []PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()

	actions, err := c.readQueue()
	if err != nil {
		c.storeFailure("list", err)

		return []PendingAction{}
	}

	return actions
}

// ClearQueuedActions empties the queue.
func (c *cache) ClearQueuedActions() Outcome {
	if c.closed.Load() {
		return OutcomeFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(c.queueKey); err != nil {
		c.storeFailure("clear_queue", fmt.Errorf("%w: %v", ErrStoreWrite, err))

		return OutcomeDegraded
	}

	c.metrics.SetQueueDepth(0)
	c.l.Debug("action queue cleared")

	return OutcomeOK
}

// readQueue loads the queue. The caller holds c.mu.
func (c *cache) readQueue() ([]PendingAction, error) {
	b, err := c.store.Get(c.queueKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []PendingAction{}, nil
	}

	if err != nil {
		return []PendingAction{}, fmt.Errorf("%w: reading queue: %v", ErrStoreRead, err)
	}

	actions := []PendingAction{}
	if err := json.Unmarshal(b, &actions); err != nil {
		return []PendingAction{}, fmt.Errorf("%w: %w: %v", ErrStoreRead, errCorruptQueue, err)
	}

	return actions, nil
}

// writeQueue persists the queue, deleting the key once it is empty.
// The caller holds c.mu.
func (c *cache) writeQueue(actions []PendingAction) error {
	if len(actions) == 0 {
		if err := c.store.Delete(c.queueKey); err != nil {
			return fmt.Errorf("%w: clearing queue: %v", ErrStoreWrite, err)
		}

		c.metrics.SetQueueDepth(0)

		return nil
	}

	b, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("%w: encoding queue: %v", ErrStoreWrite, err)
	}

	if err := c.store.Set(c.queueKey, b); err != nil {
		return fmt.Errorf("%w: writing queue: %v", ErrStoreWrite, err)
	}

	c.metrics.SetQueueDepth(len(actions))

	return nil
}

// updateQueue applies fn to the stored queue and writes the result back.
func (c *cache) updateQueue(fn func([]PendingAction) []PendingAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	actions, err := c.readQueue()
	if err != nil {
		return err
	}

	return c.writeQueue(fn(actions))
}
