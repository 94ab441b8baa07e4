package app

import (
	"context"
	"strings"

	"github.com/PushNchat-com/sokoclick-sub004/internal/clock"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

type QueryRepository interface {
	GetSlot(ctx context.Context, id int) (domain.Slot, error)
	ListSlots(ctx context.Context) ([]domain.Slot, error)
	CountByStatus(ctx context.Context) (map[domain.SlotStatus]int, error)
	IncrementViewCount(ctx context.Context, id int) (int64, error)
}

// SlotQueryService is the read side: listing, search and per-status counts.
// Every read settles due reservations through the engine first, so callers
// never observe a stale reserved slot.
type SlotQueryService struct {
	repo     QueryRepository
	resolver ExpiryResolver
	clock    clock.Clock
}

func NewQueryService(repo QueryRepository, resolver ExpiryResolver, clk clock.Clock) *SlotQueryService {
	return &SlotQueryService{
		repo:     repo,
		resolver: resolver,
		clock:    clk,
	}
}

type ListFilter struct {
	Status *domain.SlotStatus
	Search string
}

func (s *SlotQueryService) List(ctx context.Context, f ListFilter) ([]domain.Slot, error) {
	slots, err := s.repo.ListSlots(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		slot, err = s.settle(ctx, slot)
		if err != nil {
			return nil, err
		}
		if f.Status != nil && slot.Status != *f.Status {
			continue
		}
		if f.Search != "" && !matchesSearch(slot, f.Search) {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func (s *SlotQueryService) Get(ctx context.Context, id int) (domain.Slot, error) {
	slot, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	return s.settle(ctx, slot)
}

// RecordView bumps the view counter on behalf of the display collaborator
// and returns the slot as it now stands. The counter sits outside the
// version token, so this never conflicts with lifecycle writes.
func (s *SlotQueryService) RecordView(ctx context.Context, id int) (domain.Slot, error) {
	if _, err := s.repo.IncrementViewCount(ctx, id); err != nil {
		return domain.Slot{}, err
	}
	return s.Get(ctx, id)
}

type SlotStats struct {
	Total       int
	Available   int
	Reserved    int
	Occupied    int
	Maintenance int
}

// Stats counts slots per status over the post-expiry state. The counts
// always sum to Total.
func (s *SlotQueryService) Stats(ctx context.Context) (SlotStats, error) {
	if _, err := s.resolver.ExpireDue(ctx); err != nil {
		return SlotStats{}, err
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return SlotStats{}, err
	}

	stats := SlotStats{
		Available:   counts[domain.SlotStatusAvailable],
		Reserved:    counts[domain.SlotStatusReserved],
		Occupied:    counts[domain.SlotStatusOccupied],
		Maintenance: counts[domain.SlotStatusMaintenance],
	}
	stats.Total = stats.Available + stats.Reserved + stats.Occupied + stats.Maintenance
	return stats, nil
}

// settle resolves a due reservation before the slot is returned. Losing the
// race to another resolver is fine; the refreshed row wins either way.
func (s *SlotQueryService) settle(ctx context.Context, slot domain.Slot) (domain.Slot, error) {
	if slot.Status != domain.SlotStatusReserved || slot.Reservation == nil {
		return slot, nil
	}
	if slot.Reservation.ReservedUntil.After(s.clock.Now()) {
		return slot, nil
	}

	settled, err := s.resolver.ExpireIfDue(ctx, slot.ID)
	if err == domain.ErrConflict {
		return s.repo.GetSlot(ctx, slot.ID)
	}
	if err != nil {
		return domain.Slot{}, err
	}
	return settled, nil
}

func matchesSearch(slot domain.Slot, term string) bool {
	term = strings.ToLower(term)
	names := make([]string, 0, 4)
	if slot.Draft != nil {
		names = append(names, slot.Draft.Name.EN, slot.Draft.Name.FR)
	}
	if slot.Live != nil {
		names = append(names, slot.Live.Name.EN, slot.Live.Name.FR)
	}
	for _, name := range names {
		if name != "" && strings.Contains(strings.ToLower(name), term) {
			return true
		}
	}
	return false
}
