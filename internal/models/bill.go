package models

import "github.com/shopspring/decimal"

// DefaultItemName is used for items submitted without a usable name.
const DefaultItemName = "Item"

// Bill represents a shared expense split among participants.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// Title is the human-readable name for the bill.
	Title string

	// Subtotal is the pre-tax, pre-tip amount of the bill.
	Subtotal decimal.Decimal

	// Tax is the total tax on the bill (zero when not given).
	Tax decimal.Decimal

	// Tip is the total tip on the bill (zero when not given).
	Tip decimal.Decimal

	// Total is Subtotal + Tax + Tip, exactly.
	Total decimal.Decimal

	// PayerID is the account that paid the whole bill.
	PayerID string

	// PayerUsername is a snapshot of the payer's username, filled on reads.
	PayerUsername string

	// Splitters are the participants' allocated portions, in submission order.
	Splitters []Splitter

	// Complete is set once everyone has paid the payer back.
	Complete bool

	// Version starts at 1 and is incremented by every successful update.
	Version int64

	// CreatedAt is the Unix timestamp when the bill was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last write.
	UpdatedAt int64
}

// Splitter is one participant's allocated portion of a bill.
type Splitter struct {
	// AccountID references the participant's account.
	AccountID string

	// Username is a denormalized snapshot of the participant's username.
	Username string

	// Items are the line items assigned to this participant.
	Items []Item

	// ItemsCost is the exact sum of Items' costs.
	ItemsCost decimal.Decimal

	// TaxShare is ItemsCost/Subtotal of the bill's tax, rounded to two decimals.
	TaxShare decimal.Decimal

	// TipShare is ItemsCost/Subtotal of the bill's tip, rounded to two decimals.
	TipShare decimal.Decimal

	// TotalOwed is ItemsCost + TaxShare + TipShare, rounded to two decimals.
	// Equal to the exact sum whenever item costs are in whole cents.
	TotalOwed decimal.Decimal

	// Paid records whether this participant has paid the payer.
	Paid bool
}

// Item is a single priced line entry.
type Item struct {
	Name string
	Cost decimal.Decimal
}

// ParticipantIDs returns the payer followed by every splitter account, without
// duplicates, in first-seen order.
func (b *Bill) ParticipantIDs() []string {
	seen := make(map[string]bool, len(b.Splitters)+1)
	ids := make([]string, 0, len(b.Splitters)+1)
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}
	add(b.PayerID)
	for _, s := range b.Splitters {
		add(s.AccountID)
	}
	return ids
}

// Involves reports whether accountID is the payer or one of the splitters.
func (b *Bill) Involves(accountID string) bool {
	if b.PayerID == accountID {
		return true
	}
	for _, s := range b.Splitters {
		if s.AccountID == accountID {
			return true
		}
	}
	return false
}
