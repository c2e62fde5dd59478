package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/models"
	"ms-billsplit/internal/payment"
)

type DBLayer interface {
	CreateBill(ctx context.Context, bill *models.Bill) error
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	GetBillByTableID(ctx context.Context, tableID string) (*models.Bill, error)
	GetBillWithItems(ctx context.Context, id string) (*models.BillWithItems, error)
	UpdateBill(ctx context.Context, bill *models.Bill) error
	ListActiveBills(ctx context.Context) ([]models.Bill, error)
	GetBillItem(ctx context.Context, id string) (*models.BillItem, error)
	GetBillItems(ctx context.Context, billID string) ([]models.BillItem, error)
	GetPaymentsByBillID(ctx context.Context, billID string) ([]models.Payment, error)
	ApplyPayment(ctx context.Context, bill *models.Bill, items []*models.BillItem, payment *models.Payment) error
	AddItemToBill(ctx context.Context, item *models.BillItem, bill *models.Bill) error
	UpdateItemAndBill(ctx context.Context, item *models.BillItem, bill *models.Bill) error
}

type BillLock interface {
	LockBill(ctx context.Context, billID, token string) (bool, error)
	UnlockBill(ctx context.Context, billID, token string) error
}

type EventPublisher interface {
	PublishPaymentCompleted(bill models.Bill, payment models.Payment) error
	PublishBillUpdated(bill models.Bill) error
}

var validate = validator.New()

// BillService owns bill lifecycle and settlement. Every mutation of a
// bill or its items runs under that bill's lock, so aggregate updates
// never interleave.
type BillService struct {
	DB         DBLayer
	Lock       BillLock
	Events     EventPublisher
	Authorizer payment.Authorizer
	Logger     *logger.Logger

	// LockWait bounds how long a mutation waits for a busy bill before
	// giving up with ErrUnavailable.
	LockWait time.Duration
}

func NewBillService(db DBLayer, lock BillLock, events EventPublisher, authorizer payment.Authorizer, log *logger.Logger) *BillService {
	return &BillService{
		DB:         db,
		Lock:       lock,
		Events:     events,
		Authorizer: authorizer,
		Logger:     log,
		LockWait:   5 * time.Second,
	}
}

// OpenBill opens a tab for a table. A table carries at most one active
// bill, so opening against a table that already has one is rejected.
func (s *BillService) OpenBill(ctx context.Context, req models.BillRequest) (*models.Bill, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if req.Total.Sign() < 0 {
		return nil, fmt.Errorf("%w: total cannot be negative", errs.ErrValidation)
	}

	existing, err := s.DB.GetBillByTableID(ctx, req.TableID)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("check active bill: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: table %s already has an active bill", errs.ErrIntegrity, req.TableID)
	}

	guestCount := req.GuestCount
	if guestCount == 0 {
		guestCount = 1
	}

	status, remaining := models.DeriveBillStatus(req.Total, decimal.Zero)
	bill := &models.Bill{
		ID:         uuid.NewString(),
		TableID:    req.TableID,
		Total:      req.Total,
		Paid:       decimal.Zero,
		Remaining:  remaining,
		Status:     status,
		GuestCount: guestCount,
		StartTime:  time.Now(),
		IsActive:   true,
	}

	if err := s.DB.CreateBill(ctx, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	s.Logger.LogBill("OPEN", bill.ID, fmt.Sprintf("table=%s total=%s", bill.TableID, bill.Total))
	s.publishBillUpdated(*bill)
	return bill, nil
}

func (s *BillService) GetBill(ctx context.Context, id string) (*models.BillWithItems, error) {
	return s.DB.GetBillWithItems(ctx, id)
}

// GetActiveBillForTable resolves the table's open tab with its items.
func (s *BillService) GetActiveBillForTable(ctx context.Context, tableID string) (*models.BillWithItems, error) {
	bill, err := s.DB.GetBillByTableID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return s.DB.GetBillWithItems(ctx, bill.ID)
}

func (s *BillService) GetBillItems(ctx context.Context, billID string) ([]models.BillItem, error) {
	if _, err := s.DB.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	return s.DB.GetBillItems(ctx, billID)
}

// UpdateBill applies the caller-updatable fields. Paid, remaining and
// status stay reconciler-owned; closing a tab requires it to be settled.
func (s *BillService) UpdateBill(ctx context.Context, id string, patch models.BillPatch) (*models.Bill, error) {
	bill, err := s.DB.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.GuestCount != nil {
		if *patch.GuestCount <= 0 {
			return nil, fmt.Errorf("%w: guest count must be positive", errs.ErrValidation)
		}
		bill.GuestCount = *patch.GuestCount
	}

	if patch.IsActive != nil && *patch.IsActive != bill.IsActive {
		if !*patch.IsActive {
			if bill.Remaining.Sign() > 0 {
				return nil, fmt.Errorf("%w: cannot close bill %s with %s remaining", errs.ErrIntegrity, id, bill.Remaining)
			}
		} else {
			other, err := s.DB.GetBillByTableID(ctx, bill.TableID)
			if err != nil && !errors.Is(err, errs.ErrNotFound) {
				return nil, fmt.Errorf("check active bill: %w", err)
			}
			if other != nil && other.ID != bill.ID {
				return nil, fmt.Errorf("%w: table %s already has an active bill", errs.ErrIntegrity, bill.TableID)
			}
		}
		bill.IsActive = *patch.IsActive
	}

	if err := s.DB.UpdateBill(ctx, bill); err != nil {
		return nil, fmt.Errorf("update bill %s: %w", id, err)
	}

	s.Logger.LogBill("UPDATE", bill.ID, fmt.Sprintf("guests=%d active=%t", bill.GuestCount, bill.IsActive))
	s.publishBillUpdated(*bill)
	return bill, nil
}

// AddItem appends a line to an open bill and raises the bill total by
// price*quantity, re-deriving remaining and status in the same
// transaction.
func (s *BillService) AddItem(ctx context.Context, billID string, req models.BillItemRequest) (*models.BillItem, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	if req.Price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: item price must be positive", errs.ErrValidation)
	}
	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: item quantity must be positive", errs.ErrValidation)
	}

	release, err := s.acquireBillLock(ctx, billID)
	if err != nil {
		return nil, err
	}
	defer release()

	bill, err := s.DB.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !bill.IsActive {
		return nil, fmt.Errorf("%w: bill %s is closed", errs.ErrValidation, billID)
	}

	item := &models.BillItem{
		ID:           uuid.NewString(),
		BillID:       billID,
		Name:         req.Name,
		Price:        req.Price,
		Quantity:     quantity,
		PaidQuantity: decimal.Zero,
	}

	bill.Total = bill.Total.Add(req.Price.Mul(quantity))
	bill.Status, bill.Remaining = models.DeriveBillStatus(bill.Total, bill.Paid)

	if err := s.DB.AddItemToBill(ctx, item, bill); err != nil {
		return nil, fmt.Errorf("add item to bill %s: %w", billID, err)
	}

	s.Logger.LogBill("ADD_ITEM", billID, fmt.Sprintf("%s x%s @ %s, new total=%s", item.Name, item.Quantity, item.Price, bill.Total))
	s.publishBillUpdated(*bill)
	return item, nil
}

// UpdateItem renames or reprices a line. Repricing is only allowed while
// nothing of the line has been paid; afterwards the settled amounts could
// no longer be reconstructed.
func (s *BillService) UpdateItem(ctx context.Context, itemID string, patch models.BillItemPatch) (*models.BillItem, error) {
	item, err := s.DB.GetBillItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	release, err := s.acquireBillLock(ctx, item.BillID)
	if err != nil {
		return nil, err
	}
	defer release()

	item, err = s.DB.GetBillItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	bill, err := s.DB.GetBill(ctx, item.BillID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty", errs.ErrValidation)
		}
		item.Name = *patch.Name
	}

	if patch.Price != nil && !patch.Price.Equal(item.Price) {
		if patch.Price.Sign() <= 0 {
			return nil, fmt.Errorf("%w: item price must be positive", errs.ErrValidation)
		}
		if item.PaidQuantity.Sign() > 0 {
			return nil, fmt.Errorf("%w: cannot reprice partially paid item %s", errs.ErrIntegrity, itemID)
		}
		bill.Total = bill.Total.Sub(item.Price.Mul(item.Quantity)).Add(patch.Price.Mul(item.Quantity))
		bill.Status, bill.Remaining = models.DeriveBillStatus(bill.Total, bill.Paid)
		item.Price = *patch.Price
	}

	if err := s.DB.UpdateItemAndBill(ctx, item, bill); err != nil {
		return nil, fmt.Errorf("update item %s: %w", itemID, err)
	}

	s.Logger.LogBill("UPDATE_ITEM", item.BillID, fmt.Sprintf("item=%s name=%s price=%s", item.ID, item.Name, item.Price))
	s.publishBillUpdated(*bill)
	return item, nil
}

// ListPayments returns the settlement history of a bill, newest first.
func (s *BillService) ListPayments(ctx context.Context, billID string) ([]models.Payment, error) {
	if _, err := s.DB.GetBill(ctx, billID); err != nil {
		return nil, err
	}
	return s.DB.GetPaymentsByBillID(ctx, billID)
}

// acquireBillLock takes the per-bill mutex, retrying while another
// settlement holds it, up to LockWait.
func (s *BillService) acquireBillLock(ctx context.Context, billID string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(s.LockWait)

	for {
		ok, err := s.Lock.LockBill(ctx, billID, token)
		if err != nil {
			return nil, fmt.Errorf("%w: bill lock: %v", errs.ErrUnavailable, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: bill %s is busy", errs.ErrUnavailable, billID)
		}

		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", errs.ErrUnavailable, ctx.Err())
		}
	}

	return func() {
		if err := s.Lock.UnlockBill(context.Background(), billID, token); err != nil {
			s.Logger.Error("LOCK", fmt.Sprintf("failed to unlock bill %s: %v", billID, err))
		}
	}, nil
}

func (s *BillService) publishBillUpdated(bill models.Bill) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishBillUpdated(bill); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish bill updated for %s: %v", bill.ID, err))
	}
}
