package domain

import "time"

// SlotCount is the fixed number of display slots. Slots are seeded once at
// setup and only ever mutated; no slot is created or deleted at runtime.
const SlotCount = 25

type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusReserved    SlotStatus = "reserved"
	SlotStatusOccupied    SlotStatus = "occupied"
	SlotStatusMaintenance SlotStatus = "maintenance"
)

type DraftStatus string

const (
	DraftStatusEmpty          DraftStatus = "empty"
	DraftStatusDrafting       DraftStatus = "drafting"
	DraftStatusReadyToPublish DraftStatus = "ready_to_publish"
)

// Reservation is a time-bounded hold on an available slot.
type Reservation struct {
	ReservedBy    string    `json:"reserved_by"`
	ReservedUntil time.Time `json:"reserved_until"`
}

// Slot is one numbered display position. Status, reservation and live
// content are written only through the lifecycle engine; Version is the
// optimistic concurrency token compared on every write.
type Slot struct {
	ID             int
	Status         SlotStatus
	Maintenance    bool
	PreviousStatus SlotStatus // status pre-empted by maintenance, empty otherwise
	Reservation    *Reservation
	DraftStatus    DraftStatus
	Draft          *ProductContent
	Live           *LiveContent
	ViewCount      int64
	Version        string
	UpdatedAt      time.Time
}
