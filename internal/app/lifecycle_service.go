package app

import (
	"context"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/clock"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
	"github.com/google/uuid"
)

// SlotWriter is the compare-and-swap write half shared by the engine and the
// publication pipeline. A version mismatch surfaces as domain.ErrConflict,
// never as a silent overwrite.
type SlotWriter interface {
	UpdateSlot(ctx context.Context, slot domain.Slot, expectedVersion string) error
}

type LifecycleRepository interface {
	SlotWriter
	GetSlot(ctx context.Context, id int) (domain.Slot, error)
	ListDueReservations(ctx context.Context, now time.Time) ([]int, error)
}

// UndoRecorder receives the inverse of a committed mutation. The engine does
// not know what happens to the record; replay goes through its normal entry
// points like any other call.
type UndoRecorder interface {
	Record(slotID int, actor string, inverse func(ctx context.Context) (domain.Slot, error))
}

// SlotLifecycleEngine enforces the slot status state machine. It is the only
// writer of status, reservation and live content.
type SlotLifecycleEngine struct {
	repo  LifecycleRepository
	clock clock.Clock
	undo  UndoRecorder // optional
}

func NewLifecycleEngine(repo LifecycleRepository, clk clock.Clock, undo UndoRecorder) *SlotLifecycleEngine {
	return &SlotLifecycleEngine{
		repo:  repo,
		clock: clk,
		undo:  undo,
	}
}

// Reserve places a time-bounded hold on an available slot. The deadline is
// caller-supplied and must be strictly in the future; the engine never infers
// a timeout.
func (e *SlotLifecycleEngine) Reserve(ctx context.Context, id int, until time.Time, actor string) (domain.Slot, error) {
	return e.reserve(ctx, id, until, actor, "")
}

func (e *SlotLifecycleEngine) reserve(ctx context.Context, id int, until time.Time, actor string, mustMatch string) (domain.Slot, error) {
	now := e.clock.Now()
	if !until.After(now) {
		return domain.Slot{}, domain.ErrDeadlinePast
	}

	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if mustMatch != "" && cur.Version != mustMatch {
		return domain.Slot{}, domain.ErrConflict
	}
	if cur.Maintenance {
		return domain.Slot{}, domain.ErrMaintenanceLocked
	}
	if cur.Status != domain.SlotStatusAvailable {
		return domain.Slot{}, domain.ErrConflict
	}

	next := cur
	next.Status = domain.SlotStatusReserved
	next.Reservation = &domain.Reservation{ReservedBy: actor, ReservedUntil: until.UTC()}

	slot, err := e.commit(ctx, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, err
	}

	e.record(id, actor, func(ctx context.Context) (domain.Slot, error) {
		return e.cancelReservation(ctx, id, actor, slot.Version)
	})
	return slot, nil
}

// CancelReservation reverts a reserved slot to available. Conflict if the
// reservation already expired, or was cancelled by another admin.
func (e *SlotLifecycleEngine) CancelReservation(ctx context.Context, id int, actor string) (domain.Slot, error) {
	return e.cancelReservation(ctx, id, actor, "")
}

func (e *SlotLifecycleEngine) cancelReservation(ctx context.Context, id int, actor string, mustMatch string) (domain.Slot, error) {
	now := e.clock.Now()
	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if mustMatch != "" && cur.Version != mustMatch {
		return domain.Slot{}, domain.ErrConflict
	}
	if cur.Maintenance {
		return domain.Slot{}, domain.ErrMaintenanceLocked
	}
	if cur.Status != domain.SlotStatusReserved || cur.Reservation == nil {
		return domain.Slot{}, domain.ErrConflict
	}

	prev := *cur.Reservation
	next := cur
	next.Status = domain.SlotStatusAvailable
	next.Reservation = nil

	slot, err := e.commit(ctx, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, err
	}

	e.record(id, actor, func(ctx context.Context) (domain.Slot, error) {
		// Re-reserving past the original deadline fails its future check,
		// which is the correct outcome for a stale compensation.
		return e.reserve(ctx, id, prev.ReservedUntil, prev.ReservedBy, slot.Version)
	})
	return slot, nil
}

// RemoveProduct takes an occupied slot off display. The live bundle is
// cleared entirely; the draft is untouched.
func (e *SlotLifecycleEngine) RemoveProduct(ctx context.Context, id int, actor string) (domain.Slot, error) {
	now := e.clock.Now()
	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if cur.Maintenance {
		return domain.Slot{}, domain.ErrMaintenanceLocked
	}
	if cur.Status != domain.SlotStatusOccupied || cur.Live == nil {
		return domain.Slot{}, domain.ErrConflict
	}

	prev := cur.Live
	next := cur
	next.Status = domain.SlotStatusAvailable
	next.Live = nil

	slot, err := e.commit(ctx, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, err
	}

	e.record(id, actor, func(ctx context.Context) (domain.Slot, error) {
		return e.restoreLive(ctx, id, prev, slot.Version)
	})
	return slot, nil
}

// restoreLive is the inverse of RemoveProduct. It passes the same checks as
// any other transition into occupied.
func (e *SlotLifecycleEngine) restoreLive(ctx context.Context, id int, live *domain.LiveContent, mustMatch string) (domain.Slot, error) {
	now := e.clock.Now()
	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if mustMatch != "" && cur.Version != mustMatch {
		return domain.Slot{}, domain.ErrConflict
	}
	if cur.Maintenance {
		return domain.Slot{}, domain.ErrMaintenanceLocked
	}
	if cur.Status != domain.SlotStatusAvailable {
		return domain.Slot{}, domain.ErrConflict
	}

	next := cur
	next.Status = domain.SlotStatusOccupied
	next.Live = live
	return e.commit(ctx, next, cur.Version, now)
}

// SetMaintenance toggles the maintenance overlay. Enabling remembers the
// status it pre-empts so disabling can restore it; an in-flight reservation
// is forcibly cancelled on entry. The toggle is idempotent.
func (e *SlotLifecycleEngine) SetMaintenance(ctx context.Context, id int, enabled bool, actor string) (domain.Slot, error) {
	return e.setMaintenance(ctx, id, enabled, actor, "")
}

func (e *SlotLifecycleEngine) setMaintenance(ctx context.Context, id int, enabled bool, actor string, mustMatch string) (domain.Slot, error) {
	now := e.clock.Now()
	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if mustMatch != "" && cur.Version != mustMatch {
		return domain.Slot{}, domain.ErrConflict
	}
	if cur.Maintenance == enabled {
		return cur, nil
	}

	next := cur
	if enabled {
		prev := cur.Status
		if prev == domain.SlotStatusReserved {
			prev = domain.SlotStatusAvailable
			next.Reservation = nil
		}
		next.Maintenance = true
		next.PreviousStatus = prev
		next.Status = domain.SlotStatusMaintenance
	} else {
		next.Maintenance = false
		next.Status = cur.PreviousStatus
		next.PreviousStatus = ""
	}

	slot, err := e.commit(ctx, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, err
	}

	e.record(id, actor, func(ctx context.Context) (domain.Slot, error) {
		return e.setMaintenance(ctx, id, !enabled, actor, slot.Version)
	})
	return slot, nil
}

// ExpireIfDue reverts a reservation whose deadline has passed. Calling it on
// a slot that is not reserved, or not yet due, is a no-op, not an error.
func (e *SlotLifecycleEngine) ExpireIfDue(ctx context.Context, id int) (domain.Slot, error) {
	slot, _, err := e.expireIfDue(ctx, id)
	return slot, err
}

func (e *SlotLifecycleEngine) expireIfDue(ctx context.Context, id int) (domain.Slot, bool, error) {
	now := e.clock.Now()
	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, false, err
	}
	if cur.Status != domain.SlotStatusReserved || cur.Reservation == nil {
		return cur, false, nil
	}
	if cur.Reservation.ReservedUntil.After(now) {
		return cur, false, nil
	}

	next := cur
	next.Status = domain.SlotStatusAvailable
	next.Reservation = nil

	slot, err := e.commit(ctx, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, false, err
	}
	return slot, true, nil
}

// ExpireDue settles every reservation past its deadline and reports how many
// it reverted. A conflict means someone else already resolved the slot and is
// deliberately swallowed.
func (e *SlotLifecycleEngine) ExpireDue(ctx context.Context) (int, error) {
	ids, err := e.repo.ListDueReservations(ctx, e.clock.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		_, changed, err := e.expireIfDue(ctx, id)
		if err != nil {
			if err == domain.ErrConflict || err == domain.ErrSlotNotFound {
				continue
			}
			return expired, err
		}
		if changed {
			expired++
		}
	}
	return expired, nil
}

// publishDraft transitions a slot to occupied with the given live bundle.
// Publication is allowed from any status except the maintenance overlay; a
// pending reservation is considered fulfilled and cleared, and an existing
// live bundle is replaced. The draft is cleared after a successful publish.
func (e *SlotLifecycleEngine) publishDraft(ctx context.Context, cur domain.Slot, live *domain.LiveContent, actor string) (domain.Slot, error) {
	now := e.clock.Now()
	if cur.Maintenance {
		return domain.Slot{}, domain.ErrMaintenanceLocked
	}

	snap := publishSnapshot{
		status:      cur.Status,
		reservation: cur.Reservation,
		live:        cur.Live,
		draft:       cur.Draft,
		draftStatus: cur.DraftStatus,
	}

	next := cur
	next.Status = domain.SlotStatusOccupied
	next.Reservation = nil
	next.Live = live
	next.Draft = nil
	next.DraftStatus = domain.DraftStatusEmpty

	slot, err := e.commit(ctx, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, err
	}

	e.record(cur.ID, actor, func(ctx context.Context) (domain.Slot, error) {
		return e.unpublish(ctx, cur.ID, snap, slot.Version)
	})
	return slot, nil
}

type publishSnapshot struct {
	status      domain.SlotStatus
	reservation *domain.Reservation
	live        *domain.LiveContent
	draft       *domain.ProductContent
	draftStatus domain.DraftStatus
}

// unpublish is the inverse of publishDraft: it restores the pre-publish
// status, reservation, live and draft fields in one guarded write.
func (e *SlotLifecycleEngine) unpublish(ctx context.Context, id int, snap publishSnapshot, mustMatch string) (domain.Slot, error) {
	now := e.clock.Now()
	cur, err := e.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if mustMatch != "" && cur.Version != mustMatch {
		return domain.Slot{}, domain.ErrConflict
	}
	if cur.Maintenance {
		return domain.Slot{}, domain.ErrMaintenanceLocked
	}
	if cur.Status != domain.SlotStatusOccupied {
		return domain.Slot{}, domain.ErrConflict
	}

	next := cur
	next.Status = snap.status
	next.Reservation = snap.reservation
	next.Live = snap.live
	next.Draft = snap.draft
	next.DraftStatus = snap.draftStatus
	if next.Status == domain.SlotStatusReserved &&
		(next.Reservation == nil || !next.Reservation.ReservedUntil.After(now)) {
		// The restored reservation already ran out; settle it immediately
		// instead of resurrecting a stale hold.
		next.Status = domain.SlotStatusAvailable
		next.Reservation = nil
	}
	return e.commit(ctx, next, cur.Version, now)
}

func (e *SlotLifecycleEngine) commit(ctx context.Context, next domain.Slot, expectedVersion string, now time.Time) (domain.Slot, error) {
	return commitSlot(ctx, e.repo, next, expectedVersion, now)
}

// commitSlot stamps a fresh version token and timestamp and performs the
// guarded write. Invariants have been checked by the time this runs; nothing
// is written when the version no longer matches.
func commitSlot(ctx context.Context, w SlotWriter, next domain.Slot, expectedVersion string, now time.Time) (domain.Slot, error) {
	next.Version = uuid.NewString()
	next.UpdatedAt = now
	if err := w.UpdateSlot(ctx, next, expectedVersion); err != nil {
		return domain.Slot{}, err
	}
	return next, nil
}

func (e *SlotLifecycleEngine) record(slotID int, actor string, inverse func(ctx context.Context) (domain.Slot, error)) {
	if e.undo == nil {
		return
	}
	e.undo.Record(slotID, actor, inverse)
}
