package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LocalizedText carries the English and French variants of a text field.
type LocalizedText struct {
	EN string `json:"en,omitempty"`
	FR string `json:"fr,omitempty"`
}

func (l LocalizedText) Empty() bool {
	return l.EN == "" && l.FR == ""
}

// ProductContent is the seller-submitted bundle staged in a slot draft.
type ProductContent struct {
	SellerContact string          `json:"seller_contact,omitempty"`
	Name          LocalizedText   `json:"name"`
	Description   LocalizedText   `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency,omitempty"`
	Categories    []string        `json:"categories,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	ImageURLs     []string        `json:"image_urls,omitempty"`
}

// LiveContent is the published bundle visible to customers while a slot is
// occupied.
type LiveContent struct {
	ProductContent
	SellerID    string    `json:"seller_id"`
	PublishedAt time.Time `json:"published_at"`
}
