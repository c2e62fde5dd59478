package models_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ms-billsplit/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveBillStatus(t *testing.T) {
	// Test case 1: Nothing paid yet
	status, remaining := models.DeriveBillStatus(dec("89.50"), decimal.Zero)
	assert.Equal(t, models.BillStatusUnpaid, status)
	assert.True(t, remaining.Equal(dec("89.50")))

	// Test case 2: Partially paid
	status, remaining = models.DeriveBillStatus(dec("89.50"), dec("32.75"))
	assert.Equal(t, models.BillStatusPartial, status)
	assert.True(t, remaining.Equal(dec("56.75")))

	// Test case 3: Exactly settled
	status, remaining = models.DeriveBillStatus(dec("89.50"), dec("89.50"))
	assert.Equal(t, models.BillStatusPaid, status)
	assert.True(t, remaining.IsZero())

	// Test case 4: Overpaid (tips push paid past total), remaining floors at zero
	status, remaining = models.DeriveBillStatus(dec("89.50"), dec("95.75"))
	assert.Equal(t, models.BillStatusPaid, status)
	assert.True(t, remaining.IsZero())

	// Test case 5: Zero-total bill counts as settled
	status, remaining = models.DeriveBillStatus(decimal.Zero, decimal.Zero)
	assert.Equal(t, models.BillStatusPaid, status)
	assert.True(t, remaining.IsZero())
}

func TestDeriveBillStatusSettlementSequence(t *testing.T) {
	// A partial bill settled by one more payment covering the remainder
	// plus tip must end paid with zero remaining.
	total := dec("89.50")
	paid := dec("32.75")

	status, remaining := models.DeriveBillStatus(total, paid)
	assert.Equal(t, models.BillStatusPartial, status)
	assert.True(t, remaining.Equal(dec("56.75")))

	paid = paid.Add(dec("50.50")).Add(dec("6.25"))
	status, remaining = models.DeriveBillStatus(total, paid)
	assert.Equal(t, models.BillStatusPaid, status)
	assert.True(t, remaining.IsZero())
}

func TestBillItemRemainingQuantity(t *testing.T) {
	item := models.BillItem{
		Name:         "Wine Bottle (Shared)",
		Price:        dec("45.00"),
		Quantity:     decimal.NewFromInt(1),
		PaidQuantity: dec("0.5"),
	}

	assert.True(t, item.RemainingQuantity().Equal(dec("0.5")))
	assert.False(t, item.IsFullyPaid())

	item.PaidQuantity = item.PaidQuantity.Add(dec("0.5"))
	assert.True(t, item.RemainingQuantity().IsZero())
	assert.True(t, item.IsFullyPaid())
}
