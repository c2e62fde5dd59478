package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-billsplit/internal/dashboard"
	"ms-billsplit/internal/logger"
	"ms-billsplit/internal/models"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) ListTables(ctx context.Context) ([]models.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Table), args.Error(1)
}

func (m *MockDBLayer) ListActiveBills(ctx context.Context) ([]models.Bill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Bill), args.Error(1)
}

func (m *MockDBLayer) ListItemsForBills(ctx context.Context, billIDs []string) ([]models.BillItem, error) {
	args := m.Called(ctx, billIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BillItem), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func floorFixture() ([]models.Table, []models.Bill, []models.BillItem) {
	// Three tables, deliberately out of order; two with active bills.
	tables := []models.Table{
		{ID: "t-12", Number: 12, RestaurantName: "Bella Vista Restaurant"},
		{ID: "t-3", Number: 3, RestaurantName: "Bella Vista Restaurant"},
		{ID: "t-7", Number: 7, RestaurantName: "Bella Vista Restaurant"},
	}
	bills := []models.Bill{
		{
			ID: "bill-7", TableID: "t-7",
			Total: dec("89.50"), Paid: dec("32.75"), Remaining: dec("56.75"),
			Status: models.BillStatusPartial, GuestCount: 4,
			StartTime: time.Now(), IsActive: true,
		},
		{
			ID: "bill-12", TableID: "t-12",
			Total: dec("156.75"), Paid: decimal.Zero, Remaining: dec("156.75"),
			Status: models.BillStatusUnpaid, GuestCount: 2,
			StartTime: time.Now(), IsActive: true,
		},
	}
	items := []models.BillItem{
		{ID: "item-1", BillID: "bill-7", Name: "Caesar Salad", Price: dec("18.50"), Quantity: decimal.NewFromInt(1)},
		{ID: "item-2", BillID: "bill-7", Name: "Grilled Salmon", Price: dec("32.00"), Quantity: decimal.NewFromInt(1)},
	}
	return tables, bills, items
}

func newTestService() (*dashboard.DashboardService, *MockDBLayer) {
	mockDB := new(MockDBLayer)
	return dashboard.NewDashboardService(mockDB, logger.NewLogger()), mockDB
}

// Tests start here
func TestGetTables(t *testing.T) {
	svc, mockDB := newTestService()
	ctx := context.Background()

	tables, bills, items := floorFixture()
	mockDB.On("ListTables", mock.Anything).Return(tables, nil)
	mockDB.On("ListActiveBills", mock.Anything).Return(bills, nil)
	mockDB.On("ListItemsForBills", mock.Anything, mock.Anything).Return(items, nil)

	result, err := svc.GetTables(ctx)

	assert.NoError(t, err)
	assert.Len(t, result, 3)

	// Sorted by table number ascending
	assert.Equal(t, 3, result[0].Number)
	assert.Equal(t, 7, result[1].Number)
	assert.Equal(t, 12, result[2].Number)

	// Table 3 has no active bill
	assert.Nil(t, result[0].Bill)
	assert.Empty(t, result[0].Items)

	// Table 7 carries its bill, guest count and items
	assert.NotNil(t, result[1].Bill)
	assert.Equal(t, "bill-7", result[1].Bill.ID)
	assert.Equal(t, 4, result[1].GuestCount)
	assert.Len(t, result[1].Items, 2)
	assert.NotNil(t, result[1].StartTime)

	// Table 12 has a bill without items
	assert.NotNil(t, result[2].Bill)
	assert.Empty(t, result[2].Items)

	mockDB.AssertExpectations(t)
}

func TestGetTablesIsIdempotent(t *testing.T) {
	svc, mockDB := newTestService()
	ctx := context.Background()

	tables, bills, items := floorFixture()
	mockDB.On("ListTables", mock.Anything).Return(tables, nil)
	mockDB.On("ListActiveBills", mock.Anything).Return(bills, nil)
	mockDB.On("ListItemsForBills", mock.Anything, mock.Anything).Return(items, nil)

	// Two folds over unchanged state must agree.
	first, err := svc.GetTables(ctx)
	assert.NoError(t, err)
	second, err := svc.GetTables(ctx)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGetSummary(t *testing.T) {
	svc, mockDB := newTestService()
	ctx := context.Background()

	tables, bills, items := floorFixture()
	// Add a settled table to exercise the paid bucket.
	tables = append(tables, models.Table{ID: "t-5", Number: 5, RestaurantName: "Bella Vista Restaurant"})
	bills = append(bills, models.Bill{
		ID: "bill-5", TableID: "t-5",
		Total: dec("65.25"), Paid: dec("65.25"), Remaining: decimal.Zero,
		Status: models.BillStatusPaid, GuestCount: 2,
		StartTime: time.Now(), IsActive: true,
	})

	mockDB.On("ListTables", mock.Anything).Return(tables, nil)
	mockDB.On("ListActiveBills", mock.Anything).Return(bills, nil)
	mockDB.On("ListItemsForBills", mock.Anything, mock.Anything).Return(items, nil)

	summary, err := svc.GetSummary(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTables)
	assert.Equal(t, 3, summary.ActiveTables)
	assert.Equal(t, 1, summary.PaidTables)
	assert.Equal(t, 1, summary.PartialTables)
	assert.Equal(t, 1, summary.UnpaidTables)
}
