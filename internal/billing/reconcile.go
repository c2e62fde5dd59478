package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/models"
)

// RecordPayment settles one payment against a bill.
//
// The whole operation is all-or-nothing: every item delta is validated
// against its remaining unpaid quantity before anything is written, the
// external authorization happens before anything is written, and the bill
// aggregate, item paid-quantities and payment record then commit in one
// transaction under the bill's lock. After a successful call
// total == paid + remaining holds (with remaining floored at zero) and
// every touched item satisfies paidQuantity <= quantity.
func (s *BillService) RecordPayment(ctx context.Context, req models.PaymentRequest) (*models.Payment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", errs.ErrValidation)
	}
	if req.Tip.Sign() < 0 {
		return nil, fmt.Errorf("%w: tip cannot be negative", errs.ErrValidation)
	}

	if _, err := s.DB.GetBill(ctx, req.BillID); err != nil {
		return nil, err
	}

	release, err := s.acquireBillLock(ctx, req.BillID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock: another settlement may have landed between
	// the existence check and acquisition.
	bill, err := s.DB.GetBill(ctx, req.BillID)
	if err != nil {
		return nil, err
	}
	if !bill.IsActive {
		return nil, fmt.Errorf("%w: bill %s is closed", errs.ErrValidation, req.BillID)
	}

	items, err := s.validateItemDeltas(ctx, bill, req)
	if err != nil {
		return nil, err
	}

	totalAmount := req.Amount.Add(req.Tip)
	newPaid := bill.Paid.Add(totalAmount)
	newStatus, newRemaining := models.DeriveBillStatus(bill.Total, newPaid)

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "card"
	}

	s.Logger.LogPayment("AUTHORIZE", bill.ID, fmt.Sprintf("amount=%s tip=%s method=%s", req.Amount, req.Tip, paymentMethod))
	transactionID, err := s.Authorizer.Authorize(ctx, totalAmount, paymentMethod)
	if err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("authorization failed for bill %s: %v", bill.ID, err))
		return nil, err
	}

	bill.Paid = newPaid
	bill.Remaining = newRemaining
	bill.Status = newStatus

	record := &models.Payment{
		ID:            uuid.NewString(),
		BillID:        bill.ID,
		Amount:        req.Amount,
		Tip:           req.Tip,
		Items:         req.Items,
		PaymentMethod: paymentMethod,
		Status:        models.PaymentStatusCompleted,
		TransactionID: transactionID,
		ProcessedAt:   time.Now(),
	}

	if err := s.DB.ApplyPayment(ctx, bill, items, record); err != nil {
		return nil, fmt.Errorf("apply payment to bill %s: %w", bill.ID, err)
	}

	s.Logger.LogPayment("SETTLED", bill.ID, fmt.Sprintf("paid=%s remaining=%s status=%s", bill.Paid, bill.Remaining, bill.Status))
	s.publishPaymentCompleted(*bill, *record)
	return record, nil
}

// validateItemDeltas checks every requested item-quantity against the
// item's remaining unpaid portion and returns the post-payment item
// states. Nothing is persisted here; a single bad delta rejects the whole
// payment. Repeated itemIds accumulate against the same remainder.
func (s *BillService) validateItemDeltas(ctx context.Context, bill *models.Bill, req models.PaymentRequest) ([]*models.BillItem, error) {
	updated := make(map[string]*models.BillItem, len(req.Items))
	order := make([]string, 0, len(req.Items))

	for _, pi := range req.Items {
		if pi.Quantity.Sign() <= 0 {
			return nil, fmt.Errorf("%w: quantity for item %s must be positive", errs.ErrValidation, pi.ItemID)
		}

		item, ok := updated[pi.ItemID]
		if !ok {
			var err error
			item, err = s.DB.GetBillItem(ctx, pi.ItemID)
			if err != nil {
				return nil, err
			}
			if item.BillID != bill.ID {
				return nil, fmt.Errorf("%w: item %s does not belong to bill %s", errs.ErrValidation, pi.ItemID, bill.ID)
			}
			updated[pi.ItemID] = item
			order = append(order, pi.ItemID)
		}

		if pi.Quantity.GreaterThan(item.RemainingQuantity()) {
			return nil, fmt.Errorf("%w: item %s has only %s unpaid, requested %s",
				errs.ErrValidation, pi.ItemID, item.RemainingQuantity(), pi.Quantity)
		}
		item.PaidQuantity = item.PaidQuantity.Add(pi.Quantity)

		if item.PaidQuantity.GreaterThan(item.Quantity) {
			return nil, fmt.Errorf("%w: item %s paid quantity %s would exceed quantity %s",
				errs.ErrIntegrity, pi.ItemID, item.PaidQuantity, item.Quantity)
		}
	}

	items := make([]*models.BillItem, 0, len(order))
	for _, id := range order {
		items = append(items, updated[id])
	}

	if subtotal := paymentSubtotal(req.Items); !subtotal.IsZero() && !subtotal.Equal(req.Amount) {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("bill %s: declared amount %s differs from item subtotal %s", bill.ID, req.Amount, subtotal))
	}

	return items, nil
}

func paymentSubtotal(items []models.PaymentItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, pi := range items {
		subtotal = subtotal.Add(pi.Amount)
	}
	return subtotal
}

func (s *BillService) publishPaymentCompleted(bill models.Bill, payment models.Payment) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishPaymentCompleted(bill, payment); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish payment completed for %s: %v", bill.ID, err))
	}
}
