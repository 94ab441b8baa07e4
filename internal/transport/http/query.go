package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/PushNchat-com/sokoclick-sub004/internal/app"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

// SlotLister is the minimal interface needed to list slots.
type SlotLister interface {
	List(ctx context.Context, f app.ListFilter) ([]domain.Slot, error)
}

// StatsProvider is the minimal interface needed for the stats endpoint.
type StatsProvider interface {
	Stats(ctx context.Context) (app.SlotStats, error)
}

// HandleListSlots returns all slots, optionally filtered by status and a
// substring match against draft/live product names.
func HandleListSlots(svc SlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var filter app.ListFilter
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := domain.SlotStatus(raw)
			switch status {
			case domain.SlotStatusAvailable, domain.SlotStatusReserved,
				domain.SlotStatusOccupied, domain.SlotStatusMaintenance:
				filter.Status = &status
			default:
				writeError(w, http.StatusBadRequest, codeInvalidStatus, "invalid status filter")
				return
			}
		}
		filter.Search = r.URL.Query().Get("search")

		slots, err := svc.List(r.Context(), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := make([]slotResponse, 0, len(slots))
		for _, slot := range slots {
			resp = append(resp, toSlotResponse(slot))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type statsResponse struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Reserved    int `json:"reserved"`
	Occupied    int `json:"occupied"`
	Maintenance int `json:"maintenance"`
}

// HandleSlotStats reports per-status counts over the post-expiry state.
func HandleSlotStats(svc StatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statsResponse{
			Total:       stats.Total,
			Available:   stats.Available,
			Reserved:    stats.Reserved,
			Occupied:    stats.Occupied,
			Maintenance: stats.Maintenance,
		})
	}
}
