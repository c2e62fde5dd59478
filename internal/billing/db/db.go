package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/models"
)

// DB is the bill/item/payment storage layer. Bun is an IDB so the same
// methods run against the root connection or inside a transaction.
type DB struct {
	Bun bun.IDB
}

// RunInTx runs fn against a transaction-scoped DB. Calls nested inside an
// existing transaction reuse it.
func (d *DB) RunInTx(ctx context.Context, fn func(tx *DB) error) error {
	root, ok := d.Bun.(*bun.DB)
	if !ok {
		return fn(d)
	}
	return root.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(&DB{Bun: tx})
	})
}

// ---------------- BILLS ----------------

func (d *DB) CreateBill(ctx context.Context, bill *models.Bill) error {
	_, err := d.Bun.NewInsert().Model(bill).Exec(ctx)
	return err
}

func (d *DB) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	var bill models.Bill
	err := d.Bun.NewSelect().
		Model(&bill).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetBillByTableID returns the one active bill of a table.
func (d *DB) GetBillByTableID(ctx context.Context, tableID string) (*models.Bill, error) {
	var bill models.Bill
	err := d.Bun.NewSelect().
		Model(&bill).
		Where("table_id = ?", tableID).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active bill for table %s: %w", tableID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (d *DB) GetBillWithItems(ctx context.Context, id string) (*models.BillWithItems, error) {
	bill, err := d.GetBill(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := d.GetBillItems(ctx, id)
	if err != nil {
		return nil, err
	}

	var table models.Table
	err = d.Bun.NewSelect().
		Model(&table).
		Where("id = ?", bill.TableID).
		Limit(1).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	result := &models.BillWithItems{Bill: *bill, Items: items}
	if err == nil {
		result.Table = &table
	}
	return result, nil
}

// UpdateBill writes the mutable bill columns.
func (d *DB) UpdateBill(ctx context.Context, bill *models.Bill) error {
	_, err := d.Bun.NewUpdate().
		Model(bill).
		Column("total", "paid", "remaining", "status", "guest_count", "is_active").
		Where("id = ?", bill.ID).
		Exec(ctx)
	return err
}

func (d *DB) ListActiveBills(ctx context.Context) ([]models.Bill, error) {
	var bills []models.Bill
	err := d.Bun.NewSelect().
		Model(&bills).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// ---------------- BILL ITEMS ----------------

func (d *DB) CreateBillItem(ctx context.Context, item *models.BillItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(ctx)
	return err
}

func (d *DB) GetBillItem(ctx context.Context, id string) (*models.BillItem, error) {
	var item models.BillItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill item %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) GetBillItems(ctx context.Context, billID string) ([]models.BillItem, error) {
	var items []models.BillItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("bill_id = ?", billID).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) UpdateBillItem(ctx context.Context, item *models.BillItem) error {
	_, err := d.Bun.NewUpdate().
		Model(item).
		Column("name", "price", "quantity", "paid_quantity").
		Where("id = ?", item.ID).
		Exec(ctx)
	return err
}

// ---------------- PAYMENTS ----------------

func (d *DB) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := d.Bun.NewInsert().Model(payment).Exec(ctx)
	return err
}

func (d *DB) GetPaymentsByBillID(ctx context.Context, billID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := d.Bun.NewSelect().
		Model(&payments).
		Where("bill_id = ?", billID).
		Order("processed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ---------------- TRANSACTIONAL UNITS ----------------

// ApplyPayment persists one settlement as a single atomic unit: the bill
// aggregate, every touched item, and the immutable payment record commit
// together or not at all.
func (d *DB) ApplyPayment(ctx context.Context, bill *models.Bill, items []*models.BillItem, payment *models.Payment) error {
	return d.RunInTx(ctx, func(tx *DB) error {
		if err := tx.UpdateBill(ctx, bill); err != nil {
			return fmt.Errorf("update bill %s: %w", bill.ID, err)
		}
		for _, item := range items {
			if err := tx.UpdateBillItem(ctx, item); err != nil {
				return fmt.Errorf("update bill item %s: %w", item.ID, err)
			}
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
}

// AddItemToBill inserts a line and re-derives the bill aggregate in one
// transaction, so total never drifts from the item set.
func (d *DB) AddItemToBill(ctx context.Context, item *models.BillItem, bill *models.Bill) error {
	return d.RunInTx(ctx, func(tx *DB) error {
		if err := tx.CreateBillItem(ctx, item); err != nil {
			return fmt.Errorf("create bill item: %w", err)
		}
		if err := tx.UpdateBill(ctx, bill); err != nil {
			return fmt.Errorf("update bill %s: %w", bill.ID, err)
		}
		return nil
	})
}

// UpdateItemAndBill writes a repriced item together with the re-derived
// bill aggregate.
func (d *DB) UpdateItemAndBill(ctx context.Context, item *models.BillItem, bill *models.Bill) error {
	return d.RunInTx(ctx, func(tx *DB) error {
		if err := tx.UpdateBillItem(ctx, item); err != nil {
			return fmt.Errorf("update bill item %s: %w", item.ID, err)
		}
		if err := tx.UpdateBill(ctx, bill); err != nil {
			return fmt.Errorf("update bill %s: %w", bill.ID, err)
		}
		return nil
	})
}
