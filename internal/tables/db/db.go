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

// DB is the table registry storage layer.
type DB struct {
	Bun bun.IDB
}

func (d *DB) CreateTable(ctx context.Context, table *models.Table) error {
	_, err := d.Bun.NewInsert().Model(table).Exec(ctx)
	return err
}

func (d *DB) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	err := d.Bun.NewSelect().
		Model(&table).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// GetTableByNumber resolves the external lookup key (number, restaurant).
func (d *DB) GetTableByNumber(ctx context.Context, number int, restaurantName string) (*models.Table, error) {
	var table models.Table
	err := d.Bun.NewSelect().
		Model(&table).
		Where("number = ?", number).
		Where("restaurant_name = ?", restaurantName).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %d at %s: %w", number, restaurantName, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
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

func (d *DB) ListActiveTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := d.Bun.NewSelect().
		Model(&tables).
		Where("is_active = ?", true).
		Order("number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (d *DB) UpdateTable(ctx context.Context, table *models.Table) error {
	_, err := d.Bun.NewUpdate().
		Model(table).
		Column("is_active").
		Where("id = ?", table.ID).
		Exec(ctx)
	return err
}
