package app

import (
	"context"

	"github.com/PushNchat-com/sokoclick-sub004/internal/clock"
	"github.com/PushNchat-com/sokoclick-sub004/internal/domain"
	"github.com/shopspring/decimal"
)

type PublicationRepository interface {
	SlotWriter
	GetSlot(ctx context.Context, id int) (domain.Slot, error)
}

// PublicationPipeline stages draft content and promotes it to live. Draft
// fields are merged incrementally with no status precondition; validation is
// deferred to publish time so sellers can save partial work. The status
// transition itself goes through the lifecycle engine.
type PublicationPipeline struct {
	repo   PublicationRepository
	engine *SlotLifecycleEngine
	clock  clock.Clock
	undo   UndoRecorder // optional
}

func NewPublicationPipeline(repo PublicationRepository, engine *SlotLifecycleEngine, clk clock.Clock, undo UndoRecorder) *PublicationPipeline {
	return &PublicationPipeline{
		repo:   repo,
		engine: engine,
		clock:  clk,
		undo:   undo,
	}
}

// DraftPatch carries the fields of one incremental draft save. Nil pointers
// and nil slices leave the stored value untouched.
type DraftPatch struct {
	SellerContact *string
	NameEN        *string
	NameFR        *string
	DescriptionEN *string
	DescriptionFR *string
	Price         *decimal.Decimal
	Currency      *string
	Categories    []string
	Tags          []string
	ImageURLs     []string
}

// SaveDraft merges the patch into the slot's draft, creating it on first
// call. The draft status tracks completeness: ready_to_publish once every
// publish requirement is met, drafting otherwise.
func (p *PublicationPipeline) SaveDraft(ctx context.Context, id int, actor string, patch DraftPatch) (domain.Slot, error) {
	now := p.clock.Now()
	cur, err := p.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}

	prevDraft := cur.Draft
	prevStatus := cur.DraftStatus

	var d domain.ProductContent
	if cur.Draft != nil {
		d = *cur.Draft
	}
	applyPatch(&d, patch)

	next := cur
	next.Draft = &d
	if len(validateDraft(&d)) == 0 {
		next.DraftStatus = domain.DraftStatusReadyToPublish
	} else {
		next.DraftStatus = domain.DraftStatusDrafting
	}

	slot, err := commitSlot(ctx, p.repo, next, cur.Version, now)
	if err != nil {
		return domain.Slot{}, err
	}

	if p.undo != nil {
		p.undo.Record(id, actor, func(ctx context.Context) (domain.Slot, error) {
			return p.restoreDraft(ctx, id, prevDraft, prevStatus, slot.Version)
		})
	}
	return slot, nil
}

// restoreDraft is the inverse of SaveDraft: it puts the previous draft bundle
// and draft status back without touching anything else.
func (p *PublicationPipeline) restoreDraft(ctx context.Context, id int, draft *domain.ProductContent, status domain.DraftStatus, mustMatch string) (domain.Slot, error) {
	now := p.clock.Now()
	cur, err := p.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}
	if mustMatch != "" && cur.Version != mustMatch {
		return domain.Slot{}, domain.ErrConflict
	}

	next := cur
	next.Draft = draft
	next.DraftStatus = status
	return commitSlot(ctx, p.repo, next, cur.Version, now)
}

// Publish validates the complete draft and atomically promotes it to live
// content. On validation failure every offending field is reported and
// nothing is written.
func (p *PublicationPipeline) Publish(ctx context.Context, id int, actor, sellerID string) (domain.Slot, error) {
	cur, err := p.repo.GetSlot(ctx, id)
	if err != nil {
		return domain.Slot{}, err
	}

	fields := validateDraft(cur.Draft)
	if sellerID == "" {
		fields = append(fields, "seller_id")
	}
	if len(fields) > 0 {
		return domain.Slot{}, &domain.ValidationError{Fields: fields}
	}

	live := &domain.LiveContent{
		ProductContent: *cur.Draft,
		SellerID:       sellerID,
		PublishedAt:    p.clock.Now(),
	}
	return p.engine.publishDraft(ctx, cur, live, actor)
}

var allowedCurrencies = map[string]struct{}{
	"EUR": {},
	"USD": {},
	"GBP": {},
	"CHF": {},
}

// validateDraft returns the fields that block publication: seller contact,
// at least one localized name, a positive price, an allowed currency and at
// least one image URL.
func validateDraft(d *domain.ProductContent) []string {
	if d == nil {
		return []string{"seller_contact", "name", "price", "currency", "image_urls"}
	}

	var fields []string
	if d.SellerContact == "" {
		fields = append(fields, "seller_contact")
	}
	if d.Name.Empty() {
		fields = append(fields, "name")
	}
	if !d.Price.IsPositive() {
		fields = append(fields, "price")
	}
	if _, ok := allowedCurrencies[d.Currency]; !ok {
		fields = append(fields, "currency")
	}
	if len(d.ImageURLs) == 0 {
		fields = append(fields, "image_urls")
	}
	return fields
}

func applyPatch(d *domain.ProductContent, patch DraftPatch) {
	if patch.SellerContact != nil {
		d.SellerContact = *patch.SellerContact
	}
	if patch.NameEN != nil {
		d.Name.EN = *patch.NameEN
	}
	if patch.NameFR != nil {
		d.Name.FR = *patch.NameFR
	}
	if patch.DescriptionEN != nil {
		d.Description.EN = *patch.DescriptionEN
	}
	if patch.DescriptionFR != nil {
		d.Description.FR = *patch.DescriptionFR
	}
	if patch.Price != nil {
		d.Price = *patch.Price
	}
	if patch.Currency != nil {
		d.Currency = *patch.Currency
	}
	if patch.Categories != nil {
		d.Categories = patch.Categories
	}
	if patch.Tags != nil {
		d.Tags = patch.Tags
	}
	if patch.ImageURLs != nil {
		d.ImageURLs = patch.ImageURLs
	}
}
