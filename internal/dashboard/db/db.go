package db

import (
	"context"

	"github.com/uptrace/bun"

	"ms-billsplit/internal/models"
)

// DB holds the read-only queries the dashboard folds over. Projection
// happens in the service; this only fetches consistent snapshots.
type DB struct {
	Bun bun.IDB
}

func (d *DB) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := d.Bun.NewSelect().
		Model(&tables).
		Order("number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tables, nil
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

// ListItemsForBills fetches the items of every given bill in one query.
func (d *DB) ListItemsForBills(ctx context.Context, billIDs []string) ([]models.BillItem, error) {
	if len(billIDs) == 0 {
		return []models.BillItem{}, nil
	}
	var items []models.BillItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("bill_id IN (?)", bun.In(billIDs)).
		Order("bill_id", "id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}
