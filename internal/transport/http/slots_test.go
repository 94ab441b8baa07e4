package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/app"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
	"github.com/shopspring/decimal"
)

type stubLifecycle struct {
	reserve        func(ctx context.Context, id int, until time.Time, actor string) (domain.Slot, error)
	cancel         func(ctx context.Context, id int, actor string) (domain.Slot, error)
	remove         func(ctx context.Context, id int, actor string) (domain.Slot, error)
	setMaintenance func(ctx context.Context, id int, enabled bool, actor string) (domain.Slot, error)
}

func (s *stubLifecycle) Reserve(ctx context.Context, id int, until time.Time, actor string) (domain.Slot, error) {
	return s.reserve(ctx, id, until, actor)
}

func (s *stubLifecycle) CancelReservation(ctx context.Context, id int, actor string) (domain.Slot, error) {
	return s.cancel(ctx, id, actor)
}

func (s *stubLifecycle) RemoveProduct(ctx context.Context, id int, actor string) (domain.Slot, error) {
	return s.remove(ctx, id, actor)
}

func (s *stubLifecycle) SetMaintenance(ctx context.Context, id int, enabled bool, actor string) (domain.Slot, error) {
	return s.setMaintenance(ctx, id, enabled, actor)
}

type stubDrafts struct {
	saveDraft func(ctx context.Context, id int, actor string, patch app.DraftPatch) (domain.Slot, error)
	publish   func(ctx context.Context, id int, actor, sellerID string) (domain.Slot, error)
}

func (s *stubDrafts) SaveDraft(ctx context.Context, id int, actor string, patch app.DraftPatch) (domain.Slot, error) {
	return s.saveDraft(ctx, id, actor, patch)
}

func (s *stubDrafts) Publish(ctx context.Context, id int, actor, sellerID string) (domain.Slot, error) {
	return s.publish(ctx, id, actor, sellerID)
}

type stubUndo struct {
	undo func(ctx context.Context, slotID int, actor string) (domain.Slot, error)
}

func (s *stubUndo) Undo(ctx context.Context, slotID int, actor string) (domain.Slot, error) {
	return s.undo(ctx, slotID, actor)
}

type stubViewer struct {
	recordView func(ctx context.Context, id int) (domain.Slot, error)
}

func (s *stubViewer) RecordView(ctx context.Context, id int) (domain.Slot, error) {
	return s.recordView(ctx, id)
}

func sampleSlot(id int, status domain.SlotStatus) domain.Slot {
	return domain.Slot{
		ID:          id,
		Status:      status,
		DraftStatus: domain.DraftStatusEmpty,
		Version:     "abc",
		UpdatedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestHandleSlotTree_Reserve(t *testing.T) {
	t.Parallel()

	until := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		lifecycle := &stubLifecycle{
			reserve: func(_ context.Context, id int, gotUntil time.Time, actor string) (domain.Slot, error) {
				if id != 3 || actor != "admin-1" || !gotUntil.Equal(until) {
					t.Fatalf("unexpected args: id=%d actor=%q until=%v", id, actor, gotUntil)
				}
				slot := sampleSlot(3, domain.SlotStatusReserved)
				slot.Reservation = &domain.Reservation{ReservedBy: actor, ReservedUntil: until}
				return slot, nil
			},
		}
		handler := HandleSlotTree(lifecycle, nil, nil, nil)

		body := `{"until":"2025-01-01T13:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/slots/3/reserve", strings.NewReader(body))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp slotResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != 3 || resp.Status != "reserved" || resp.Reservation == nil {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("missing actor header", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/3/reserve", strings.NewReader(`{"until":"2025-01-01T13:00:00Z"}`))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != codeActorRequired {
			t.Fatalf("expected code %s, got %s", codeActorRequired, resp.Code)
		}
	})

	t.Run("malformed until", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, nil, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/3/reserve", strings.NewReader(`{"until":"tomorrow"}`))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != codeInvalidUntil {
			t.Fatalf("expected code %s, got %s", codeInvalidUntil, resp.Code)
		}
	})

	t.Run("service errors map to statuses", func(t *testing.T) {
		cases := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   string
		}{
			{"not found", domain.ErrSlotNotFound, http.StatusNotFound, codeSlotNotFound},
			{"conflict", domain.ErrConflict, http.StatusConflict, codeConflict},
			{"maintenance", domain.ErrMaintenanceLocked, http.StatusConflict, codeMaintenanceLocked},
			{"deadline past", domain.ErrDeadlinePast, http.StatusBadRequest, codeDeadlinePast},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				lifecycle := &stubLifecycle{
					reserve: func(context.Context, int, time.Time, string) (domain.Slot, error) {
						return domain.Slot{}, tc.err
					},
				}
				handler := HandleSlotTree(lifecycle, nil, nil, nil)

				req := httptest.NewRequest(http.MethodPost, "/slots/3/reserve", strings.NewReader(`{"until":"2025-01-01T13:00:00Z"}`))
				req.Header.Set(actorHeader, "admin-1")
				rec := httptest.NewRecorder()
				handler(rec, req)

				if rec.Code != tc.wantStatus {
					t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
				}
				if resp := decodeError(t, rec); resp.Code != tc.wantCode {
					t.Fatalf("expected code %s, got %s", tc.wantCode, resp.Code)
				}
			})
		}
	})

	t.Run("get is the only method without an action", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, nil, nil, &stubViewer{
			recordView: func(_ context.Context, id int) (domain.Slot, error) {
				return sampleSlot(id, domain.SlotStatusAvailable), nil
			},
		})

		req := httptest.NewRequest(http.MethodDelete, "/slots/3", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("bad slot ids are not found", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, nil, nil, nil)
		for _, path := range []string{"/slots/0/reserve", "/slots/abc/reserve", "/slots/-1"} {
			req := httptest.NewRequest(http.MethodPost, path, nil)
			req.Header.Set(actorHeader, "admin-1")
			rec := httptest.NewRecorder()
			handler(rec, req)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("%s: expected 404, got %d", path, rec.Code)
			}
		}
	})
}

func TestHandleSlotTree_Get(t *testing.T) {
	t.Parallel()

	viewer := &stubViewer{
		recordView: func(_ context.Context, id int) (domain.Slot, error) {
			slot := sampleSlot(id, domain.SlotStatusOccupied)
			slot.ViewCount = 7
			return slot, nil
		},
	}
	handler := HandleSlotTree(&stubLifecycle{}, nil, nil, viewer)

	req := httptest.NewRequest(http.MethodGet, "/slots/10", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp slotResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ViewCount != 7 {
		t.Fatalf("expected view count 7, got %d", resp.ViewCount)
	}
}

func TestHandleSlotTree_Maintenance(t *testing.T) {
	t.Parallel()

	var gotEnabled bool
	lifecycle := &stubLifecycle{
		setMaintenance: func(_ context.Context, id int, enabled bool, _ string) (domain.Slot, error) {
			gotEnabled = enabled
			return sampleSlot(id, domain.SlotStatusMaintenance), nil
		},
	}
	handler := HandleSlotTree(lifecycle, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/slots/5/maintenance", strings.NewReader(`{"enabled":true}`))
	req.Header.Set(actorHeader, "admin-1")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !gotEnabled {
		t.Fatalf("expected enabled=true passed through")
	}
}

func TestHandleSlotTree_Draft(t *testing.T) {
	t.Parallel()

	t.Run("patch forwards only the provided fields", func(t *testing.T) {
		var gotPatch app.DraftPatch
		drafts := &stubDrafts{
			saveDraft: func(_ context.Context, id int, actor string, patch app.DraftPatch) (domain.Slot, error) {
				gotPatch = patch
				slot := sampleSlot(id, domain.SlotStatusAvailable)
				slot.DraftStatus = domain.DraftStatusDrafting
				return slot, nil
			},
		}
		handler := HandleSlotTree(&stubLifecycle{}, drafts, nil, nil)

		body := `{"name_en":"Woven stool","price":"9500"}`
		req := httptest.NewRequest(http.MethodPatch, "/slots/6/draft", strings.NewReader(body))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPatch.NameEN == nil || *gotPatch.NameEN != "Woven stool" {
			t.Fatalf("expected name_en forwarded, got %+v", gotPatch.NameEN)
		}
		if gotPatch.Price == nil || !gotPatch.Price.Equal(decimal.NewFromInt(9500)) {
			t.Fatalf("expected price forwarded, got %+v", gotPatch.Price)
		}
		if gotPatch.SellerContact != nil || gotPatch.Currency != nil || gotPatch.ImageURLs != nil {
			t.Fatalf("expected omitted fields to stay nil, got %+v", gotPatch)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, &stubDrafts{}, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/6/draft", strings.NewReader(`{}`))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, &stubDrafts{}, nil, nil)

		req := httptest.NewRequest(http.MethodPatch, "/slots/6/draft", strings.NewReader(`{"title":"nope"}`))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleSlotTree_Publish(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		drafts := &stubDrafts{
			publish: func(_ context.Context, id int, actor, sellerID string) (domain.Slot, error) {
				if sellerID != "seller-42" {
					t.Fatalf("unexpected seller id %q", sellerID)
				}
				return sampleSlot(id, domain.SlotStatusOccupied), nil
			},
		}
		handler := HandleSlotTree(&stubLifecycle{}, drafts, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/8/publish", strings.NewReader(`{"seller_id":"seller-42"}`))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing seller id", func(t *testing.T) {
		handler := HandleSlotTree(&stubLifecycle{}, &stubDrafts{}, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/8/publish", strings.NewReader(`{"seller_id":""}`))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != codeSellerIDRequired {
			t.Fatalf("expected code %s, got %s", codeSellerIDRequired, resp.Code)
		}
	})

	t.Run("validation failure lists the offending fields", func(t *testing.T) {
		drafts := &stubDrafts{
			publish: func(context.Context, int, string, string) (domain.Slot, error) {
				return domain.Slot{}, &domain.ValidationError{Fields: []string{"price", "image_urls"}}
			},
		}
		handler := HandleSlotTree(&stubLifecycle{}, drafts, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/8/publish", strings.NewReader(`{"seller_id":"seller-42"}`))
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		resp := decodeError(t, rec)
		if resp.Code != codeDraftInvalid || len(resp.Fields) != 2 {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})
}

func TestHandleSlotTree_Undo(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		undo := &stubUndo{
			undo: func(_ context.Context, slotID int, actor string) (domain.Slot, error) {
				if slotID != 3 || actor != "admin-1" {
					t.Fatalf("unexpected args: %d %q", slotID, actor)
				}
				return sampleSlot(3, domain.SlotStatusAvailable), nil
			},
		}
		handler := HandleSlotTree(&stubLifecycle{}, nil, undo, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/3/undo", nil)
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("expired window", func(t *testing.T) {
		undo := &stubUndo{
			undo: func(context.Context, int, string) (domain.Slot, error) {
				return domain.Slot{}, domain.ErrUndoExpired
			},
		}
		handler := HandleSlotTree(&stubLifecycle{}, nil, undo, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/3/undo", nil)
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusGone {
			t.Fatalf("expected 410, got %d", rec.Code)
		}
	})

	t.Run("nothing to undo", func(t *testing.T) {
		undo := &stubUndo{
			undo: func(context.Context, int, string) (domain.Slot, error) {
				return domain.Slot{}, domain.ErrNothingToUndo
			},
		}
		handler := HandleSlotTree(&stubLifecycle{}, nil, undo, nil)

		req := httptest.NewRequest(http.MethodPost, "/slots/3/undo", nil)
		req.Header.Set(actorHeader, "admin-1")
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != codeNothingToUndo {
			t.Fatalf("expected code %s, got %s", codeNothingToUndo, resp.Code)
		}
	})
}
