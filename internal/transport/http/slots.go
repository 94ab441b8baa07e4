package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PushNchat-com/sokoclick-sub004/internal/app"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
	"github.com/shopspring/decimal"
)

// actorHeader carries the acting admin's id, resolved by the auth layer in
// front of this service.
const actorHeader = "X-Actor"

// LifecycleService is the minimal interface needed for slot status actions.
type LifecycleService interface {
	Reserve(ctx context.Context, id int, until time.Time, actor string) (domain.Slot, error)
	CancelReservation(ctx context.Context, id int, actor string) (domain.Slot, error)
	RemoveProduct(ctx context.Context, id int, actor string) (domain.Slot, error)
	SetMaintenance(ctx context.Context, id int, enabled bool, actor string) (domain.Slot, error)
}

// DraftService is the minimal interface needed for draft endpoints.
type DraftService interface {
	SaveDraft(ctx context.Context, id int, actor string, patch app.DraftPatch) (domain.Slot, error)
	Publish(ctx context.Context, id int, actor, sellerID string) (domain.Slot, error)
}

// UndoService is the minimal interface needed for the undo endpoint.
type UndoService interface {
	Undo(ctx context.Context, slotID int, actor string) (domain.Slot, error)
}

// SlotViewer is the read side for a single slot, counting the view on
// behalf of the display collaborator.
type SlotViewer interface {
	RecordView(ctx context.Context, id int) (domain.Slot, error)
}

// HandleSlotTree routes /slots/{id} and /slots/{id}/{action}.
func HandleSlotTree(lifecycle LifecycleService, drafts DraftService, undo UndoService, viewer SlotViewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseSlotPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if action == "" {
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			slot, err := viewer.RecordView(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeSlot(w, http.StatusOK, slot)
			return
		}

		actor := strings.TrimSpace(r.Header.Get(actorHeader))
		if actor == "" {
			writeError(w, http.StatusBadRequest, codeActorRequired, domain.ErrActorRequired.Error())
			return
		}

		switch action {
		case "reserve":
			handleReserve(w, r, lifecycle, id, actor)
		case "cancel":
			handlePost(w, r, func(ctx context.Context) (domain.Slot, error) {
				return lifecycle.CancelReservation(ctx, id, actor)
			})
		case "remove":
			handlePost(w, r, func(ctx context.Context) (domain.Slot, error) {
				return lifecycle.RemoveProduct(ctx, id, actor)
			})
		case "maintenance":
			handleMaintenance(w, r, lifecycle, id, actor)
		case "draft":
			handleSaveDraft(w, r, drafts, id, actor)
		case "publish":
			handlePublish(w, r, drafts, id, actor)
		case "undo":
			handlePost(w, r, func(ctx context.Context) (domain.Slot, error) {
				return undo.Undo(ctx, id, actor)
			})
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

type reserveRequest struct {
	Until string `json:"until"`
}

func handleReserve(w http.ResponseWriter, r *http.Request, svc LifecycleService, id int, actor string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req reserveRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	until, err := time.Parse(time.RFC3339, req.Until)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidUntil, "invalid until format")
		return
	}

	slot, err := svc.Reserve(r.Context(), id, until, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSlot(w, http.StatusOK, slot)
}

type maintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

func handleMaintenance(w http.ResponseWriter, r *http.Request, svc LifecycleService, id int, actor string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req maintenanceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	slot, err := svc.SetMaintenance(r.Context(), id, req.Enabled, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSlot(w, http.StatusOK, slot)
}

type draftRequest struct {
	SellerContact *string          `json:"seller_contact"`
	NameEN        *string          `json:"name_en"`
	NameFR        *string          `json:"name_fr"`
	DescriptionEN *string          `json:"description_en"`
	DescriptionFR *string          `json:"description_fr"`
	Price         *decimal.Decimal `json:"price"`
	Currency      *string          `json:"currency"`
	Categories    []string         `json:"categories"`
	Tags          []string         `json:"tags"`
	ImageURLs     []string         `json:"image_urls"`
}

func handleSaveDraft(w http.ResponseWriter, r *http.Request, svc DraftService, id int, actor string) {
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req draftRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	slot, err := svc.SaveDraft(r.Context(), id, actor, app.DraftPatch{
		SellerContact: req.SellerContact,
		NameEN:        req.NameEN,
		NameFR:        req.NameFR,
		DescriptionEN: req.DescriptionEN,
		DescriptionFR: req.DescriptionFR,
		Price:         req.Price,
		Currency:      req.Currency,
		Categories:    req.Categories,
		Tags:          req.Tags,
		ImageURLs:     req.ImageURLs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSlot(w, http.StatusOK, slot)
}

type publishRequest struct {
	SellerID string `json:"seller_id"`
}

func handlePublish(w http.ResponseWriter, r *http.Request, svc DraftService, id int, actor string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	var req publishRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.SellerID == "" {
		writeError(w, http.StatusBadRequest, codeSellerIDRequired, "seller_id is required")
		return
	}

	slot, err := svc.Publish(r.Context(), id, actor, req.SellerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSlot(w, http.StatusOK, slot)
}

func handlePost(w http.ResponseWriter, r *http.Request, op func(ctx context.Context) (domain.Slot, error)) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	slot, err := op(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSlot(w, http.StatusOK, slot)
}

func parseSlotPath(path string) (id int, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "slots" {
		return 0, "", false
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil || id <= 0 {
		return 0, "", false
	}
	if len(parts) == 3 {
		if parts[2] == "" {
			return 0, "", false
		}
		action = parts[2]
	}
	return id, action, true
}
