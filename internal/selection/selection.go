// Package selection models the pre-payment state a patron builds up while
// choosing what to pay: which items, what portion of each, and the tip.
// It is transient client-side state and is never persisted; the server
// uses it to derive the payment request and to test the tip contract.
package selection

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/models"
)

// QuantityStep is the granularity patrons adjust shared items in.
var QuantityStep = decimal.RequireFromString("0.25")

// TipPercentages are the preset gratuity choices, applied to the
// selected-items subtotal.
var TipPercentages = []int{15, 18, 20}

type TipMode int

const (
	TipNone TipMode = iota
	TipPercentage
	TipCustom
)

type selectedItem struct {
	price    decimal.Decimal
	quantity decimal.Decimal
	max      decimal.Decimal
}

// Selection maps item ids to chosen payable quantities, each bounded by
// the item's remaining unpaid quantity.
type Selection struct {
	items map[string]*selectedItem
	order []string

	tipMode    TipMode
	tipPercent int
	customTip  decimal.Decimal
}

func New() *Selection {
	return &Selection{items: make(map[string]*selectedItem)}
}

// Select adds an item, defaulting its quantity to the full remaining
// amount. Fully paid items cannot be selected.
func (s *Selection) Select(item models.BillItem) error {
	remaining := item.RemainingQuantity()
	if remaining.Sign() <= 0 {
		return fmt.Errorf("%w: item %s is fully paid", errs.ErrValidation, item.ID)
	}
	if _, ok := s.items[item.ID]; !ok {
		s.order = append(s.order, item.ID)
	}
	s.items[item.ID] = &selectedItem{
		price:    item.Price,
		quantity: remaining,
		max:      remaining,
	}
	return nil
}

// Deselect removes an item from the selection entirely.
func (s *Selection) Deselect(itemID string) {
	if _, ok := s.items[itemID]; !ok {
		return
	}
	delete(s.items, itemID)
	for i, id := range s.order {
		if id == itemID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Increment raises the chosen quantity by one step, clamped to the
// item's remaining quantity.
func (s *Selection) Increment(itemID string) {
	s.adjust(itemID, QuantityStep)
}

// Decrement lowers the chosen quantity by one step; reaching zero
// deselects the item.
func (s *Selection) Decrement(itemID string) {
	s.adjust(itemID, QuantityStep.Neg())
}

func (s *Selection) adjust(itemID string, delta decimal.Decimal) {
	entry, ok := s.items[itemID]
	if !ok {
		return
	}
	quantity := entry.quantity.Add(delta)
	if quantity.GreaterThan(entry.max) {
		quantity = entry.max
	}
	if quantity.Sign() <= 0 {
		s.Deselect(itemID)
		return
	}
	entry.quantity = quantity
}

// Quantity returns the chosen quantity for an item, zero if unselected.
func (s *Selection) Quantity(itemID string) decimal.Decimal {
	if entry, ok := s.items[itemID]; ok {
		return entry.quantity
	}
	return decimal.Zero
}

// Subtotal is the pre-tip sum over the selected item-quantities.
func (s *Selection) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, id := range s.order {
		entry := s.items[id]
		subtotal = subtotal.Add(entry.price.Mul(entry.quantity))
	}
	return subtotal.Round(2)
}

// SetTipPercentage picks one of the preset percentages and clears any
// custom tip.
func (s *Selection) SetTipPercentage(percent int) error {
	valid := false
	for _, p := range TipPercentages {
		if p == percent {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: tip percentage must be one of %v", errs.ErrValidation, TipPercentages)
	}
	s.tipMode = TipPercentage
	s.tipPercent = percent
	s.customTip = decimal.Zero
	return nil
}

// SetCustomTip sets a free-form gratuity and clears any percentage.
func (s *Selection) SetCustomTip(amount decimal.Decimal) error {
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: tip cannot be negative", errs.ErrValidation)
	}
	s.tipMode = TipCustom
	s.tipPercent = 0
	s.customTip = amount
	return nil
}

// Tip is derived on every call, so percentage tips track the current
// selection.
func (s *Selection) Tip() decimal.Decimal {
	switch s.tipMode {
	case TipPercentage:
		percent := decimal.NewFromInt(int64(s.tipPercent)).Div(decimal.NewFromInt(100))
		return s.Subtotal().Mul(percent).Round(2)
	case TipCustom:
		return s.customTip.Round(2)
	default:
		return decimal.Zero
	}
}

// Total is subtotal plus tip.
func (s *Selection) Total() decimal.Decimal {
	return s.Subtotal().Add(s.Tip())
}

func (s *Selection) IsEmpty() bool {
	return len(s.items) == 0
}

// PaymentRequest builds the reconciler input for the current selection.
func (s *Selection) PaymentRequest(billID, method string) models.PaymentRequest {
	items := make([]models.PaymentItem, 0, len(s.order))
	for _, id := range s.order {
		entry := s.items[id]
		items = append(items, models.PaymentItem{
			ItemID:   id,
			Quantity: entry.quantity,
			Amount:   entry.price.Mul(entry.quantity).Round(2),
		})
	}
	return models.PaymentRequest{
		BillID:        billID,
		Amount:        s.Subtotal(),
		Tip:           s.Tip(),
		Items:         items,
		PaymentMethod: method,
	}
}

// Clear resets the selection after a completed payment.
func (s *Selection) Clear() {
	s.items = make(map[string]*selectedItem)
	s.order = nil
	s.tipMode = TipNone
	s.tipPercent = 0
	s.customTip = decimal.Zero
}
