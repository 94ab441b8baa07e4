package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
)

type reservationResponse struct {
	ReservedBy    string    `json:"reserved_by"`
	ReservedUntil time.Time `json:"reserved_until"`
}

type slotResponse struct {
	ID             int                    `json:"id"`
	Status         string                 `json:"status"`
	Maintenance    bool                   `json:"maintenance"`
	PreviousStatus string                 `json:"previous_status,omitempty"`
	Reservation    *reservationResponse   `json:"reservation,omitempty"`
	DraftStatus    string                 `json:"draft_status"`
	Draft          *domain.ProductContent `json:"draft,omitempty"`
	Live           *domain.LiveContent    `json:"live,omitempty"`
	ViewCount      int64                  `json:"view_count"`
	Version        string                 `json:"version"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func toSlotResponse(slot domain.Slot) slotResponse {
	resp := slotResponse{
		ID:             slot.ID,
		Status:         string(slot.Status),
		Maintenance:    slot.Maintenance,
		PreviousStatus: string(slot.PreviousStatus),
		DraftStatus:    string(slot.DraftStatus),
		Draft:          slot.Draft,
		Live:           slot.Live,
		ViewCount:      slot.ViewCount,
		Version:        slot.Version,
		UpdatedAt:      slot.UpdatedAt,
	}
	if slot.Reservation != nil {
		resp.Reservation = &reservationResponse{
			ReservedBy:    slot.Reservation.ReservedBy,
			ReservedUntil: slot.Reservation.ReservedUntil,
		}
	}
	return resp
}

func writeSlot(w http.ResponseWriter, status int, slot domain.Slot) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toSlotResponse(slot))
}
