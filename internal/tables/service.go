package tables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/models"
	qr "ms-billsplit/internal/tables/qr_generator"
)

type DBLayer interface {
	CreateTable(ctx context.Context, table *models.Table) error
	GetTable(ctx context.Context, id string) (*models.Table, error)
	GetTableByNumber(ctx context.Context, number int, restaurantName string) (*models.Table, error)
	ListTables(ctx context.Context) ([]models.Table, error)
	ListActiveTables(ctx context.Context) ([]models.Table, error)
	UpdateTable(ctx context.Context, table *models.Table) error
}

// TableService is the table registry: it maps QR-addressed physical
// tables to ids and keeps (number, restaurant) unique so QR routing
// resolves deterministically.
type TableService struct {
	DB     DBLayer
	QR     *qr.Generator
	Logger *logger.Logger
}

func NewTableService(db DBLayer, qrGen *qr.Generator, log *logger.Logger) *TableService {
	return &TableService{DB: db, QR: qrGen, Logger: log}
}

// Register creates a table. A second table with the same (number,
// restaurant) pair is rejected, the DB unique index backs this up.
func (s *TableService) Register(ctx context.Context, req models.TableRequest) (*models.Table, error) {
	if req.Number <= 0 {
		return nil, fmt.Errorf("%w: table number must be positive", errs.ErrValidation)
	}
	if req.RestaurantName == "" {
		return nil, fmt.Errorf("%w: restaurant name is required", errs.ErrValidation)
	}

	existing, err := s.DB.GetTableByNumber(ctx, req.Number, req.RestaurantName)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("check table uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: table %d already registered for %s", errs.ErrIntegrity, req.Number, req.RestaurantName)
	}

	table := &models.Table{
		ID:             uuid.NewString(),
		Number:         req.Number,
		RestaurantName: req.RestaurantName,
		QRCode:         s.QR.EntryURL(req.Number, req.RestaurantName),
		IsActive:       true,
		CreatedAt:      time.Now(),
	}

	if err := s.DB.CreateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	s.Logger.Info("TABLE", fmt.Sprintf("Registered table %d for %s (%s)", table.Number, table.RestaurantName, table.ID))
	return table, nil
}

func (s *TableService) Get(ctx context.Context, id string) (*models.Table, error) {
	return s.DB.GetTable(ctx, id)
}

// Resolve looks a table up by its external key. QR URLs carry the
// restaurant as a slug, so an exact-name miss falls back to slug
// comparison.
func (s *TableService) Resolve(ctx context.Context, number int, restaurantName string) (*models.Table, error) {
	table, err := s.DB.GetTableByNumber(ctx, number, restaurantName)
	if err == nil {
		return table, nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	all, listErr := s.DB.ListTables(ctx)
	if listErr != nil {
		return nil, listErr
	}
	want := qr.Slug(restaurantName)
	for i := range all {
		if all[i].Number == number && qr.Slug(all[i].RestaurantName) == want {
			return &all[i], nil
		}
	}
	return nil, err
}

func (s *TableService) List(ctx context.Context) ([]models.Table, error) {
	return s.DB.ListTables(ctx)
}

func (s *TableService) ListActive(ctx context.Context) ([]models.Table, error) {
	return s.DB.ListActiveTables(ctx)
}

// SetActive flips the only mutable table field.
func (s *TableService) SetActive(ctx context.Context, id string, active bool) (*models.Table, error) {
	table, err := s.DB.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	table.IsActive = active
	if err := s.DB.UpdateTable(ctx, table); err != nil {
		return nil, fmt.Errorf("update table %s: %w", id, err)
	}
	return table, nil
}

// QRImage renders the table's QR code PNG.
func (s *TableService) QRImage(ctx context.Context, id string) ([]byte, error) {
	table, err := s.DB.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := s.QR.Generate(*table)
	if err != nil {
		return nil, fmt.Errorf("encode qr for table %s: %w", id, err)
	}
	return png, nil
}
