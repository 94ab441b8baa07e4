package app

import (
	"context"
	"sync"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/clock"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

const defaultUndoWindow = 5 * time.Second

// UndoCoordinator lets an admin reverse their own last mutating action
// within a short grace window. Undo replays the recorded inverse operation
// through the engine's normal entry points, so it is subject to the same
// version checks as a fresh call; the window is a server-validated deadline,
// never a client timer. Only the most recent record per slot and actor is
// kept.
type UndoCoordinator struct {
	clock  clock.Clock
	window time.Duration

	mu      sync.Mutex
	records map[undoKey]undoRecord
}

type undoKey struct {
	slotID int
	actor  string
}

type undoRecord struct {
	inverse     func(ctx context.Context) (domain.Slot, error)
	committedAt time.Time
	expiresAt   time.Time
}

func NewUndoCoordinator(clk clock.Clock, opts ...UndoOption) *UndoCoordinator {
	c := &UndoCoordinator{
		clock:   clk,
		window:  defaultUndoWindow,
		records: make(map[undoKey]undoRecord),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type UndoOption func(*UndoCoordinator)

// WithUndoWindow overrides the default grace window.
func WithUndoWindow(d time.Duration) UndoOption {
	return func(c *UndoCoordinator) {
		if d > 0 {
			c.window = d
		}
	}
}

// Record stores the inverse of a just-committed mutation, overwriting any
// earlier record for the same slot and actor.
func (c *UndoCoordinator) Record(slotID int, actor string, inverse func(ctx context.Context) (domain.Slot, error)) {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[undoKey{slotID: slotID, actor: actor}] = undoRecord{
		inverse:     inverse,
		committedAt: now,
		expiresAt:   now.Add(c.window),
	}
}

// Undo replays the actor's recorded inverse for the slot. It fails with
// ErrNothingToUndo when no record exists, ErrUndoExpired past the window,
// and whatever the engine reports otherwise (a slot that changed state in
// the interim surfaces as ErrConflict). A successful undo clears the slot's
// records; it cannot itself be undone.
func (c *UndoCoordinator) Undo(ctx context.Context, slotID int, actor string) (domain.Slot, error) {
	key := undoKey{slotID: slotID, actor: actor}

	c.mu.Lock()
	rec, ok := c.records[key]
	if !ok {
		c.mu.Unlock()
		return domain.Slot{}, domain.ErrNothingToUndo
	}
	now := c.clock.Now()
	if !now.Before(rec.expiresAt) {
		delete(c.records, key)
		c.mu.Unlock()
		return domain.Slot{}, domain.ErrUndoExpired
	}
	c.mu.Unlock()

	slot, err := rec.inverse(ctx)
	if err != nil {
		return domain.Slot{}, err
	}

	// The replay changed the slot, so every remaining record for it holds a
	// stale compensation; drop them all, including the one the replay just
	// registered for itself.
	c.mu.Lock()
	for k := range c.records {
		if k.slotID == slotID {
			delete(c.records, k)
		}
	}
	c.mu.Unlock()

	return slot, nil
}
