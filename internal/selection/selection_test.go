package selection_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/models"
	"ms-billsplit/internal/selection"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func salmon() models.BillItem {
	return models.BillItem{
		ID:       "salmon",
		Name:     "Grilled Salmon",
		Price:    dec("32.00"),
		Quantity: decimal.NewFromInt(1),
	}
}

func wine() models.BillItem {
	return models.BillItem{
		ID:           "wine",
		Name:         "Wine Bottle (Shared)",
		Price:        dec("45.00"),
		Quantity:     decimal.NewFromInt(1),
		PaidQuantity: dec("0.5"),
	}
}

func TestSelectDefaultsToRemaining(t *testing.T) {
	sel := selection.New()

	// A half-paid shared item is selected at its remaining half.
	assert.NoError(t, sel.Select(wine()))
	assert.True(t, sel.Quantity("wine").Equal(dec("0.5")))
	assert.True(t, sel.Subtotal().Equal(dec("22.50")))

	// A fully paid item cannot be selected.
	paid := salmon()
	paid.PaidQuantity = paid.Quantity
	err := sel.Select(paid)
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestQuantityStepping(t *testing.T) {
	sel := selection.New()
	assert.NoError(t, sel.Select(wine()))

	// Decrement by one step: 0.5 -> 0.25
	sel.Decrement("wine")
	assert.True(t, sel.Quantity("wine").Equal(dec("0.25")))

	// Increment past the remaining quantity clamps.
	sel.Increment("wine")
	sel.Increment("wine")
	sel.Increment("wine")
	assert.True(t, sel.Quantity("wine").Equal(dec("0.5")))

	// Decrementing to zero deselects.
	sel.Decrement("wine")
	sel.Decrement("wine")
	assert.True(t, sel.Quantity("wine").IsZero())
	assert.True(t, sel.IsEmpty())
}

func TestTipModes(t *testing.T) {
	sel := selection.New()
	assert.NoError(t, sel.Select(salmon()))

	// No tip by default
	assert.True(t, sel.Tip().IsZero())
	assert.True(t, sel.Total().Equal(dec("32.00")))

	// Preset percentage of the selected subtotal
	assert.NoError(t, sel.SetTipPercentage(18))
	assert.True(t, sel.Tip().Equal(dec("5.76")))
	assert.True(t, sel.Total().Equal(dec("37.76")))

	// Unknown preset is rejected
	assert.ErrorIs(t, sel.SetTipPercentage(17), errs.ErrValidation)

	// Custom tip replaces the percentage
	assert.NoError(t, sel.SetCustomTip(dec("4.00")))
	assert.True(t, sel.Tip().Equal(dec("4.00")))

	// Percentage replaces the custom tip again
	assert.NoError(t, sel.SetTipPercentage(20))
	assert.True(t, sel.Tip().Equal(dec("6.40")))

	// Negative custom tip is rejected
	assert.ErrorIs(t, sel.SetCustomTip(dec("-1.00")), errs.ErrValidation)
}

func TestPercentageTipTracksSelection(t *testing.T) {
	sel := selection.New()
	assert.NoError(t, sel.Select(salmon()))
	assert.NoError(t, sel.Select(wine()))
	assert.NoError(t, sel.SetTipPercentage(20))

	// 32.00 + 22.50 = 54.50, 20% = 10.90
	assert.True(t, sel.Tip().Equal(dec("10.90")))

	// Dropping an item recomputes the tip from the new subtotal.
	sel.Deselect("wine")
	assert.True(t, sel.Tip().Equal(dec("6.40")))
}

func TestPaymentRequest(t *testing.T) {
	sel := selection.New()
	assert.NoError(t, sel.Select(salmon()))
	assert.NoError(t, sel.Select(wine()))
	assert.NoError(t, sel.SetTipPercentage(15))

	req := sel.PaymentRequest("bill-1", "card")

	assert.Equal(t, "bill-1", req.BillID)
	assert.Equal(t, "card", req.PaymentMethod)
	assert.True(t, req.Amount.Equal(dec("54.50")))
	assert.True(t, req.Tip.Equal(dec("8.18"))) // 15% of 54.50, rounded
	assert.Len(t, req.Items, 2)
	assert.Equal(t, "salmon", req.Items[0].ItemID)
	assert.True(t, req.Items[1].Quantity.Equal(dec("0.5")))
	assert.True(t, req.Items[1].Amount.Equal(dec("22.50")))
}

func TestClear(t *testing.T) {
	sel := selection.New()
	assert.NoError(t, sel.Select(salmon()))
	assert.NoError(t, sel.SetCustomTip(dec("5.00")))

	sel.Clear()

	assert.True(t, sel.IsEmpty())
	assert.True(t, sel.Tip().IsZero())
	assert.True(t, sel.Subtotal().IsZero())
}
