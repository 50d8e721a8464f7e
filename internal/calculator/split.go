package calculator

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yurawu27/splittie/internal/apperr"
	"github.com/yurawu27/splittie/internal/models"
)

// moneyPlaces is the fixed-point precision of stored share fields.
const moneyPlaces = 2

// Totals holds a bill's validated top-level amounts.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Tip      decimal.Decimal
}

// GrandTotal returns Subtotal + Tax + Tip, unrounded.
func (t Totals) GrandTotal() decimal.Decimal {
	return t.Subtotal.Add(t.Tax).Add(t.Tip)
}

// ItemInput is a line item as submitted, before normalization.
type ItemInput struct {
	// Name is nil when the field was absent.
	Name *string
	Cost string
}

// SplitterInput is one participant's submitted items.
type SplitterInput struct {
	Username string
	Items    []ItemInput
	Paid     bool
}

// Allocation is the engine's output, ready to be assigned into a Bill.
type Allocation struct {
	Totals    Totals
	Total     decimal.Decimal
	Splitters []models.Splitter
}

// Engine computes proportional tax and tip shares.
// The zero value rejects negative item costs.
type Engine struct {
	// AllowNegativeCosts lets negative item costs (discounts, corrections)
	// flow into totals instead of failing validation.
	AllowNegativeCosts bool
}

// ParseAmount parses a submitted money value. It reports false for blank or
// non-numeric input.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseTotals validates the bill-level amounts. The subtotal is required and
// must be a non-negative number; tax and tip default to zero when absent or
// unparseable but may not be negative.
func ParseTotals(subtotal, tax, tip string) (Totals, error) {
	sub, ok := ParseAmount(subtotal)
	if !ok || sub.IsNegative() {
		return Totals{}, apperr.Validation(apperr.CodeInvalidSubtotal, "invalid subtotal %q", subtotal)
	}

	taxValue, _ := ParseAmount(tax)
	if taxValue.IsNegative() {
		return Totals{}, apperr.Validation(apperr.CodeInvalidTax, "tax cannot be negative: %s", taxValue)
	}

	tipValue, _ := ParseAmount(tip)
	if tipValue.IsNegative() {
		return Totals{}, apperr.Validation(apperr.CodeInvalidTip, "tip cannot be negative: %s", tipValue)
	}

	return Totals{Subtotal: sub, Tax: taxValue, Tip: tipValue}, nil
}

// Allocate computes every splitter's share of the bill.
//
// accounts maps usernames to resolved accounts; a splitter whose username is
// missing aborts the whole allocation. For each splitter:
//
//	itemsCost = Σ item.cost
//	taxShare  = itemsCost × tax / subtotal
//	tipShare  = itemsCost × tip / subtotal
//	totalOwed = itemsCost + taxShare + tipShare
//
// Shares are rounded half away from zero to two decimals; totalOwed is summed
// from the rounded shares so the stored fields always add up. A zero subtotal
// cannot be split and is rejected as soon as there is a splitter.
func (e Engine) Allocate(totals Totals, splitters []SplitterInput, accounts map[string]*models.Account) (*Allocation, error) {
	result := &Allocation{
		Totals:    totals,
		Total:     totals.GrandTotal(),
		Splitters: make([]models.Splitter, 0, len(splitters)),
	}

	for _, in := range splitters {
		account, ok := accounts[in.Username]
		if !ok || account == nil {
			return nil, apperr.NotFound(apperr.CodeSplitterNotFound, "Username %s not found.", in.Username)
		}

		items, itemsCost, err := e.normalizeItems(in.Items)
		if err != nil {
			return nil, err
		}

		if totals.Subtotal.IsZero() {
			return nil, apperr.Validation(apperr.CodeZeroSubtotal,
				"subtotal must be greater than zero to split among %s", in.Username)
		}
		taxShare := itemsCost.Mul(totals.Tax).Div(totals.Subtotal).Round(moneyPlaces)
		tipShare := itemsCost.Mul(totals.Tip).Div(totals.Subtotal).Round(moneyPlaces)

		result.Splitters = append(result.Splitters, models.Splitter{
			AccountID: account.ID,
			Username:  account.Username,
			Items:     items,
			ItemsCost: itemsCost,
			TaxShare:  taxShare,
			TipShare:  tipShare,
			TotalOwed: itemsCost.Add(taxShare).Add(tipShare).Round(moneyPlaces),
			Paid:      in.Paid,
		})
	}

	return result, nil
}

// normalizeItems trims names, coerces costs and sums them.
func (e Engine) normalizeItems(inputs []ItemInput) ([]models.Item, decimal.Decimal, error) {
	items := make([]models.Item, 0, len(inputs))
	sum := decimal.Zero
	for _, in := range inputs {
		name := models.DefaultItemName
		if in.Name != nil {
			if trimmed := strings.TrimSpace(*in.Name); trimmed != "" {
				name = trimmed
			}
		}

		cost, _ := ParseAmount(in.Cost)
		if cost.IsNegative() && !e.AllowNegativeCosts {
			return nil, decimal.Zero, apperr.Validation(apperr.CodeNegativeItemCost,
				"item %q has negative cost %s", name, cost)
		}

		items = append(items, models.Item{Name: name, Cost: cost})
		sum = sum.Add(cost)
	}
	return items, sum, nil
}

// Usernames returns the distinct splitter usernames in submission order.
func Usernames(splitters []SplitterInput) []string {
	seen := make(map[string]bool, len(splitters))
	names := make([]string, 0, len(splitters))
	for _, s := range splitters {
		if seen[s.Username] {
			continue
		}
		seen[s.Username] = true
		names = append(names, s.Username)
	}
	return names
}
