package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PushNchat-com/sokoclick-sub004/internal/app"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

type stubLister struct {
	list func(ctx context.Context, f app.ListFilter) ([]domain.Slot, error)
}

func (s *stubLister) List(ctx context.Context, f app.ListFilter) ([]domain.Slot, error) {
	return s.list(ctx, f)
}

type stubStats struct {
	stats func(ctx context.Context) (app.SlotStats, error)
}

func (s *stubStats) Stats(ctx context.Context) (app.SlotStats, error) {
	return s.stats(ctx)
}

func TestHandleListSlots(t *testing.T) {
	t.Parallel()

	t.Run("returns the board", func(t *testing.T) {
		lister := &stubLister{
			list: func(_ context.Context, f app.ListFilter) ([]domain.Slot, error) {
				if f.Status != nil || f.Search != "" {
					t.Fatalf("expected empty filter, got %+v", f)
				}
				return []domain.Slot{
					sampleSlot(1, domain.SlotStatusAvailable),
					sampleSlot(2, domain.SlotStatusReserved),
				}, nil
			},
		}
		handler := HandleListSlots(lister)

		req := httptest.NewRequest(http.MethodGet, "/slots", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp []slotResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 2 || resp[0].ID != 1 || resp[1].Status != "reserved" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("passes status and search filters through", func(t *testing.T) {
		var gotFilter app.ListFilter
		lister := &stubLister{
			list: func(_ context.Context, f app.ListFilter) ([]domain.Slot, error) {
				gotFilter = f
				return nil, nil
			},
		}
		handler := HandleListSlots(lister)

		req := httptest.NewRequest(http.MethodGet, "/slots?status=occupied&search=basket", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotFilter.Status == nil || *gotFilter.Status != domain.SlotStatusOccupied {
			t.Fatalf("expected occupied filter, got %+v", gotFilter.Status)
		}
		if gotFilter.Search != "basket" {
			t.Fatalf("expected search passed through, got %q", gotFilter.Search)
		}
	})

	t.Run("rejects an unknown status value", func(t *testing.T) {
		handler := HandleListSlots(&stubLister{})

		req := httptest.NewRequest(http.MethodGet, "/slots?status=broken", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != codeInvalidStatus {
			t.Fatalf("expected code %s, got %s", codeInvalidStatus, resp.Code)
		}
	})

	t.Run("empty board is an empty array, not null", func(t *testing.T) {
		lister := &stubLister{
			list: func(context.Context, app.ListFilter) ([]domain.Slot, error) {
				return nil, nil
			},
		}
		handler := HandleListSlots(lister)

		req := httptest.NewRequest(http.MethodGet, "/slots", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if body := rec.Body.String(); body != "[]\n" {
			t.Fatalf("expected [], got %q", body)
		}
	})
}

func TestHandleSlotStats(t *testing.T) {
	t.Parallel()

	handler := HandleSlotStats(&stubStats{
		stats: func(context.Context) (app.SlotStats, error) {
			return app.SlotStats{Total: 25, Available: 20, Reserved: 2, Occupied: 2, Maintenance: 1}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/slots/stats", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp statsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 25 || resp.Available != 20 || resp.Maintenance != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
