package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-billsplit/internal/billing/db"
	"ms-billsplit/internal/errs"
	"ms-billsplit/internal/models"
)

func setupTestDB() (*db.DB, error) {
	// Create a new SQLite in-memory database
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		return nil, err
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	// Create tables
	err = bunDB.ResetModel(context.Background(),
		(*models.Table)(nil),
		(*models.Bill)(nil),
		(*models.BillItem)(nil),
		(*models.Payment)(nil),
	)
	if err != nil {
		return nil, err
	}

	return &db.DB{Bun: bunDB}, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleBill(id, tableID string) *models.Bill {
	status, remaining := models.DeriveBillStatus(dec("89.50"), dec("32.75"))
	return &models.Bill{
		ID:         id,
		TableID:    tableID,
		Total:      dec("89.50"),
		Paid:       dec("32.75"),
		Remaining:  remaining,
		Status:     status,
		GuestCount: 4,
		StartTime:  time.Now().Round(time.Second),
		IsActive:   true,
	}
}

func TestCreateAndGetBill(t *testing.T) {
	database, err := setupTestDB()
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	ctx := context.Background()

	bill := sampleBill("bill-1", "table-1")
	if err := database.CreateBill(ctx, bill); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	retrieved, err := database.GetBill(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill: %v", err)
	}

	if retrieved.TableID != bill.TableID {
		t.Errorf("Expected table ID %s, got %s", bill.TableID, retrieved.TableID)
	}
	if !retrieved.Total.Equal(bill.Total) {
		t.Errorf("Expected total %s, got %s", bill.Total, retrieved.Total)
	}
	if !retrieved.Remaining.Equal(dec("56.75")) {
		t.Errorf("Expected remaining 56.75, got %s", retrieved.Remaining)
	}
	if retrieved.Status != models.BillStatusPartial {
		t.Errorf("Expected status partial, got %s", retrieved.Status)
	}

	// Missing bills surface as not found
	_, err = database.GetBill(ctx, "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestGetBillByTableID(t *testing.T) {
	database, err := setupTestDB()
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	ctx := context.Background()

	active := sampleBill("bill-active", "table-1")
	if err := database.CreateBill(ctx, active); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	closed := sampleBill("bill-closed", "table-1")
	closed.IsActive = false
	if err := database.CreateBill(ctx, closed); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	// Only the active bill is resolved
	retrieved, err := database.GetBillByTableID(ctx, "table-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill by table: %v", err)
	}
	if retrieved.ID != "bill-active" {
		t.Errorf("Expected bill-active, got %s", retrieved.ID)
	}

	// A table with no active bill is not found
	_, err = database.GetBillByTableID(ctx, "table-2")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestGetBillWithItems(t *testing.T) {
	database, err := setupTestDB()
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	ctx := context.Background()

	table := &models.Table{
		ID:             "table-1",
		Number:         7,
		RestaurantName: "Bella Vista Restaurant",
		QRCode:         "https://splitbill.app/t/7/bella-vista-restaurant",
		IsActive:       true,
		CreatedAt:      time.Now().Round(time.Second),
	}
	if _, err := database.Bun.NewInsert().Model(table).Exec(ctx); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	bill := sampleBill("bill-1", "table-1")
	if err := database.CreateBill(ctx, bill); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	items := []*models.BillItem{
		{ID: "item-1", BillID: "bill-1", Name: "Caesar Salad", Price: dec("18.50"), Quantity: decimal.NewFromInt(1), PaidQuantity: decimal.Zero},
		{ID: "item-2", BillID: "bill-1", Name: "Wine Bottle (Shared)", Price: dec("45.00"), Quantity: decimal.NewFromInt(1), PaidQuantity: dec("0.5")},
	}
	for _, item := range items {
		if err := database.CreateBillItem(ctx, item); err != nil {
			t.Fatalf("Failed to create bill item: %v", err)
		}
	}

	result, err := database.GetBillWithItems(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill with items: %v", err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(result.Items))
	}
	if result.Items[0].Name != "Caesar Salad" {
		t.Errorf("Expected Caesar Salad first, got %s", result.Items[0].Name)
	}
	if result.Table == nil || result.Table.Number != 7 {
		t.Errorf("Expected table 7 attached to the bill")
	}
}

func TestApplyPayment(t *testing.T) {
	database, err := setupTestDB()
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	ctx := context.Background()

	bill := sampleBill("bill-1", "table-1")
	if err := database.CreateBill(ctx, bill); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}
	item := &models.BillItem{
		ID: "item-1", BillID: "bill-1", Name: "Grilled Salmon",
		Price: dec("32.00"), Quantity: decimal.NewFromInt(1), PaidQuantity: decimal.Zero,
	}
	if err := database.CreateBillItem(ctx, item); err != nil {
		t.Fatalf("Failed to create bill item: %v", err)
	}

	// Settle the salmon with an 18% tip
	bill.Paid = bill.Paid.Add(dec("37.76"))
	bill.Status, bill.Remaining = models.DeriveBillStatus(bill.Total, bill.Paid)
	item.PaidQuantity = decimal.NewFromInt(1)

	payment := &models.Payment{
		ID:     "payment-1",
		BillID: "bill-1",
		Amount: dec("32.00"),
		Tip:    dec("5.76"),
		Items: []models.PaymentItem{
			{ItemID: "item-1", Quantity: decimal.NewFromInt(1), Amount: dec("32.00")},
		},
		PaymentMethod: "card",
		Status:        models.PaymentStatusCompleted,
		TransactionID: "sim_tx_1",
		ProcessedAt:   time.Now().Round(time.Second),
	}

	if err := database.ApplyPayment(ctx, bill, []*models.BillItem{item}, payment); err != nil {
		t.Fatalf("Failed to apply payment: %v", err)
	}

	// Bill aggregate, item and payment all landed
	retrievedBill, err := database.GetBill(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill: %v", err)
	}
	if !retrievedBill.Paid.Equal(dec("70.51")) {
		t.Errorf("Expected paid 70.51, got %s", retrievedBill.Paid)
	}

	retrievedItem, err := database.GetBillItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill item: %v", err)
	}
	if !retrievedItem.PaidQuantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected paid quantity 1, got %s", retrievedItem.PaidQuantity)
	}

	payments, err := database.GetPaymentsByBillID(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Failed to retrieve payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("Expected 1 payment, got %d", len(payments))
	}
	if payments[0].TransactionID != "sim_tx_1" {
		t.Errorf("Expected transaction sim_tx_1, got %s", payments[0].TransactionID)
	}
	if len(payments[0].Items) != 1 || payments[0].Items[0].ItemID != "item-1" {
		t.Errorf("Expected payment items to round-trip, got %+v", payments[0].Items)
	}
}

func TestAddItemToBill(t *testing.T) {
	database, err := setupTestDB()
	if err != nil {
		t.Fatalf("Failed to set up test database: %v", err)
	}
	ctx := context.Background()

	bill := sampleBill("bill-1", "table-1")
	if err := database.CreateBill(ctx, bill); err != nil {
		t.Fatalf("Failed to create bill: %v", err)
	}

	item := &models.BillItem{
		ID: "item-1", BillID: "bill-1", Name: "Espresso",
		Price: dec("3.50"), Quantity: decimal.NewFromInt(2), PaidQuantity: decimal.Zero,
	}
	bill.Total = bill.Total.Add(dec("7.00"))
	bill.Status, bill.Remaining = models.DeriveBillStatus(bill.Total, bill.Paid)

	if err := database.AddItemToBill(ctx, item, bill); err != nil {
		t.Fatalf("Failed to add item to bill: %v", err)
	}

	retrieved, err := database.GetBill(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill: %v", err)
	}
	if !retrieved.Total.Equal(dec("96.50")) {
		t.Errorf("Expected total 96.50, got %s", retrieved.Total)
	}

	items, err := database.GetBillItems(ctx, "bill-1")
	if err != nil {
		t.Fatalf("Failed to retrieve bill items: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Espresso" {
		t.Errorf("Expected the espresso line, got %+v", items)
	}
}
