package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentItem describes one item-quantity a payment covered.
type PaymentItem struct {
	ItemID   string          `json:"itemId" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// Payment is an immutable receipt of one settlement transaction.
// It is appended by the reconciler and never mutated afterwards.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID            string          `bun:"id,pk" json:"id"`
	BillID        string          `bun:"bill_id,notnull" json:"billId"`
	Amount        decimal.Decimal `bun:"amount,notnull" json:"amount"`
	Tip           decimal.Decimal `bun:"tip,notnull" json:"tip"`
	Items         []PaymentItem   `bun:"items,type:jsonb" json:"items"`
	PaymentMethod string          `bun:"payment_method,notnull" json:"paymentMethod"`
	Status        PaymentStatus   `bun:"status,notnull" json:"status"`
	TransactionID string          `bun:"transaction_id,nullzero" json:"transactionId,omitempty"`
	ProcessedAt   time.Time       `bun:"processed_at,notnull" json:"processedAt"`
}

// PaymentRequest is the reconciler input: the pre-tip subtotal of the
// selected item-quantities, the gratuity, and the covered items.
type PaymentRequest struct {
	BillID        string          `json:"billId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Tip           decimal.Decimal `json:"tip"`
	Items         []PaymentItem   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string          `json:"paymentMethod"`
}

type BillEvent struct {
	Type      string    `json:"type"`
	BillID    string    `json:"bill_id"`
	Bill      *Bill     `json:"bill,omitempty"`
	Payment   *Payment  `json:"payment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
