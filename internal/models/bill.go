package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
)

// Bill is one open tab for a table-visit. Paid, remaining and status are
// owned by the payment reconciler; remaining and status are always derived
// from (total, paid) via DeriveBillStatus.
type Bill struct {
	bun.BaseModel `bun:"table:bills"`

	ID         string          `bun:"id,pk" json:"id"`
	TableID    string          `bun:"table_id,notnull" json:"tableId"`
	Total      decimal.Decimal `bun:"total,notnull" json:"total"`
	Paid       decimal.Decimal `bun:"paid,notnull" json:"paid"`
	Remaining  decimal.Decimal `bun:"remaining,notnull" json:"remaining"`
	Status     BillStatus      `bun:"status,notnull" json:"status"`
	GuestCount int             `bun:"guest_count,notnull" json:"guestCount"`
	StartTime  time.Time       `bun:"start_time,notnull" json:"startTime"`
	IsActive   bool            `bun:"is_active" json:"isActive"`
}

// BillItem is one divisible, partially payable line on a bill. Quantities
// are decimal so shared items (half a wine bottle) can be settled in
// fractional units.
type BillItem struct {
	bun.BaseModel `bun:"table:bill_items"`

	ID           string          `bun:"id,pk" json:"id"`
	BillID       string          `bun:"bill_id,notnull" json:"billId"`
	Name         string          `bun:"name,notnull" json:"name"`
	Price        decimal.Decimal `bun:"price,notnull" json:"price"`
	Quantity     decimal.Decimal `bun:"quantity,notnull" json:"quantity"`
	PaidQuantity decimal.Decimal `bun:"paid_quantity,notnull" json:"paidQuantity"`
}

// RemainingQuantity is the portion of the item still payable.
func (i *BillItem) RemainingQuantity() decimal.Decimal {
	return i.Quantity.Sub(i.PaidQuantity)
}

func (i *BillItem) IsFullyPaid() bool {
	return i.RemainingQuantity().Sign() <= 0
}

type BillWithItems struct {
	Bill
	Items []BillItem `json:"items"`
	Table *Table     `json:"table,omitempty"`
}

type BillRequest struct {
	TableID    string          `json:"tableId" validate:"required"`
	Total      decimal.Decimal `json:"total"`
	GuestCount int             `json:"guestCount" validate:"gte=0"`
}

type BillItemRequest struct {
	Name     string          `json:"name" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// BillPatch carries the caller-updatable bill fields. Paid, remaining and
// status never appear here: they only move through the reconciler.
type BillPatch struct {
	GuestCount *int  `json:"guestCount"`
	IsActive   *bool `json:"isActive"`
}

type BillItemPatch struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

// DeriveBillStatus recomputes remaining and status from (total, paid).
// Remaining is floored at zero; status follows:
//
//	paid      remaining <= 0
//	partial   paid > 0 and remaining > 0
//	unpaid    otherwise
func DeriveBillStatus(total, paid decimal.Decimal) (BillStatus, decimal.Decimal) {
	remaining := total.Sub(paid)

	status := BillStatusUnpaid
	if remaining.Sign() <= 0 {
		status = BillStatusPaid
	} else if paid.Sign() > 0 {
		status = BillStatusPartial
	}

	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}
	return status, remaining
}
