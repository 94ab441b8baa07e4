package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotRepository persists the fixed set of slots, one row per id. Writes are
// guarded by the version column: an UPDATE that matches no row because the
// version moved reports domain.ErrConflict.
type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) GetSlot(ctx context.Context, id int) (domain.Slot, error) {
	const query = `
SELECT id, status, maintenance, previous_status, reserved_by, reserved_until,
       draft_status, draft, live, view_count, version, updated_at
FROM slots
WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	slot, err := scanSlot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrSlotNotFound
		}
		return domain.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

func (r *SlotRepository) UpdateSlot(ctx context.Context, slot domain.Slot, expectedVersion string) error {
	var draftJSON, liveJSON []byte
	var err error
	if slot.Draft != nil {
		if draftJSON, err = json.Marshal(slot.Draft); err != nil {
			return fmt.Errorf("marshal draft: %w", err)
		}
	}
	if slot.Live != nil {
		if liveJSON, err = json.Marshal(slot.Live); err != nil {
			return fmt.Errorf("marshal live: %w", err)
		}
	}

	var reservedBy *string
	var reservedUntil *time.Time
	if slot.Reservation != nil {
		reservedBy = &slot.Reservation.ReservedBy
		reservedUntil = &slot.Reservation.ReservedUntil
	}
	var previousStatus *string
	if slot.PreviousStatus != "" {
		s := string(slot.PreviousStatus)
		previousStatus = &s
	}

	// view_count is deliberately absent from the SET list: the engine never
	// writes the counter.
	const stmt = `
UPDATE slots
SET status = $2,
    maintenance = $3,
    previous_status = $4,
    reserved_by = $5,
    reserved_until = $6,
    draft_status = $7,
    draft = $8,
    live = $9,
    version = $10,
    updated_at = $11
WHERE id = $1 AND version = $12`

	tag, err := r.pool.Exec(ctx, stmt,
		slot.ID,
		slot.Status,
		slot.Maintenance,
		previousStatus,
		reservedBy,
		reservedUntil,
		slot.DraftStatus,
		draftJSON,
		liveJSON,
		slot.Version,
		slot.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`, slot.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if !exists {
			return domain.ErrSlotNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *SlotRepository) ListSlots(ctx context.Context) ([]domain.Slot, error) {
	const query = `
SELECT id, status, maintenance, previous_status, reserved_by, reserved_until,
       draft_status, draft, live, view_count, version, updated_at
FROM slots
ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate slots: %w", rows.Err())
	}
	return slots, nil
}

func (r *SlotRepository) ListDueReservations(ctx context.Context, now time.Time) ([]int, error) {
	const query = `
SELECT id
FROM slots
WHERE status = 'reserved' AND reserved_until <= $1
ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due reservations: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due reservation: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate due reservations: %w", rows.Err())
	}
	return ids, nil
}

func (r *SlotRepository) CountByStatus(ctx context.Context) (map[domain.SlotStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM slots GROUP BY status`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SlotStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[domain.SlotStatus(status)] = count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate status counts: %w", rows.Err())
	}
	return counts, nil
}

// IncrementViewCount bumps the external view counter without touching the
// version token, so it cannot race a lifecycle write.
func (r *SlotRepository) IncrementViewCount(ctx context.Context, id int) (int64, error) {
	const stmt = `UPDATE slots SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`

	var count int64
	if err := r.pool.QueryRow(ctx, stmt, id).Scan(&count); err != nil {
		if err == pgx.ErrNoRows {
			return 0, domain.ErrSlotNotFound
		}
		return 0, fmt.Errorf("increment view count: %w", err)
	}
	return count, nil
}

func scanSlot(row pgx.Row) (domain.Slot, error) {
	var (
		slot           domain.Slot
		status         string
		previousStatus *string
		reservedBy     *string
		reservedUntil  *time.Time
		draftStatus    string
		draftJSON      []byte
		liveJSON       []byte
	)

	err := row.Scan(
		&slot.ID,
		&status,
		&slot.Maintenance,
		&previousStatus,
		&reservedBy,
		&reservedUntil,
		&draftStatus,
		&draftJSON,
		&liveJSON,
		&slot.ViewCount,
		&slot.Version,
		&slot.UpdatedAt,
	)
	if err != nil {
		return domain.Slot{}, err
	}

	slot.Status = domain.SlotStatus(status)
	slot.DraftStatus = domain.DraftStatus(draftStatus)
	if previousStatus != nil {
		slot.PreviousStatus = domain.SlotStatus(*previousStatus)
	}
	if reservedBy != nil && reservedUntil != nil {
		slot.Reservation = &domain.Reservation{
			ReservedBy:    *reservedBy,
			ReservedUntil: reservedUntil.UTC(),
		}
	}
	if len(draftJSON) > 0 {
		var draft domain.ProductContent
		if err := json.Unmarshal(draftJSON, &draft); err != nil {
			return domain.Slot{}, fmt.Errorf("unmarshal draft: %w", err)
		}
		slot.Draft = &draft
	}
	if len(liveJSON) > 0 {
		var live domain.LiveContent
		if err := json.Unmarshal(liveJSON, &live); err != nil {
			return domain.Slot{}, fmt.Errorf("unmarshal live: %w", err)
		}
		slot.Live = &live
	}
	slot.UpdatedAt = slot.UpdatedAt.UTC()
	return slot, nil
}
