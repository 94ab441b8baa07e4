package domain

import (
	"errors"
	"strings"
)

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrConflict          = errors.New("slot state changed")
	ErrMaintenanceLocked = errors.New("slot under maintenance")
	ErrDeadlinePast      = errors.New("reservation deadline must be in the future")
	ErrUndoExpired       = errors.New("undo window elapsed")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrActorRequired     = errors.New("actor required")
)

// ValidationError reports every draft field that blocks publication.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "draft invalid: " + strings.Join(e.Fields, ", ")
}
