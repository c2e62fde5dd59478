package dashboard

import (
	"context"
	"fmt"
	"sort"

	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/models"
)

type DBLayer interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	ListActiveBills(ctx context.Context) ([]models.Bill, error)
	ListItemsForBills(ctx context.Context, billIDs []string) ([]models.BillItem, error)
}

// DashboardService projects the table floor for staff: every table joined
// with its active bill and items. The fold runs fresh on every read so it
// always reflects the latest settlements.
type DashboardService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewDashboardService(db DBLayer, log *logger.Logger) *DashboardService {
	return &DashboardService{DB: db, Logger: log}
}

// GetTables emits one DashboardTable per registered table, sorted by
// table number ascending.
func (s *DashboardService) GetTables(ctx context.Context) ([]models.DashboardTable, error) {
	tables, err := s.DB.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	bills, err := s.DB.ListActiveBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active bills: %w", err)
	}

	billByTable := make(map[string]*models.Bill, len(bills))
	billIDs := make([]string, 0, len(bills))
	for i := range bills {
		billByTable[bills[i].TableID] = &bills[i]
		billIDs = append(billIDs, bills[i].ID)
	}

	items, err := s.DB.ListItemsForBills(ctx, billIDs)
	if err != nil {
		return nil, fmt.Errorf("list bill items: %w", err)
	}
	itemsByBill := make(map[string][]models.BillItem)
	for _, item := range items {
		itemsByBill[item.BillID] = append(itemsByBill[item.BillID], item)
	}

	result := make([]models.DashboardTable, 0, len(tables))
	for _, table := range tables {
		entry := models.DashboardTable{
			ID:             table.ID,
			Number:         table.Number,
			RestaurantName: table.RestaurantName,
			Items:          []models.BillItem{},
		}
		if bill, ok := billByTable[table.ID]; ok {
			entry.Bill = bill
			entry.GuestCount = bill.GuestCount
			startTime := bill.StartTime
			entry.StartTime = &startTime
			if billItems, ok := itemsByBill[bill.ID]; ok {
				entry.Items = billItems
			}
		}
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result, nil
}

// GetSummary partitions tables with an active bill into status buckets.
func (s *DashboardService) GetSummary(ctx context.Context) (*models.DashboardSummary, error) {
	tables, err := s.GetTables(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{TotalTables: len(tables)}
	for _, table := range tables {
		if table.Bill == nil || !table.Bill.IsActive {
			continue
		}
		summary.ActiveTables++
		switch table.Bill.Status {
		case models.BillStatusPaid:
			summary.PaidTables++
		case models.BillStatusPartial:
			summary.PartialTables++
		default:
			summary.UnpaidTables++
		}
	}
	return summary, nil
}
