package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"ms-billsplit/internal/models"
)

// Migrate creates the service schema with bun. Production deployments run
// the SQL migrations instead; this covers dev and the sqlite test setup.
func Migrate(db bun.IDB) error {
	ctx := context.Background()

	for _, model := range []interface{}{
		(*models.Table)(nil),
		(*models.Bill)(nil),
		(*models.BillItem)(nil),
		(*models.Payment)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Seed inserts the demo restaurant: table 7 with a partially settled bill
// and a half-paid shared wine bottle, plus a spread of tables in each
// payment state for the dashboard.
func Seed(db bun.IDB) error {
	ctx := context.Background()

	tableID := uuid.NewString()
	table := &models.Table{
		ID:             tableID,
		Number:         7,
		RestaurantName: "Bella Vista Restaurant",
		QRCode:         "https://splitbill.app/t/7/bella-vista-restaurant",
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	if _, err := db.NewInsert().Model(table).Exec(ctx); err != nil {
		return err
	}

	billID := uuid.NewString()
	bill := &models.Bill{
		ID:         billID,
		TableID:    tableID,
		Total:      decimal.RequireFromString("89.50"),
		Paid:       decimal.RequireFromString("32.75"),
		Remaining:  decimal.RequireFromString("56.75"),
		Status:     models.BillStatusPartial,
		GuestCount: 4,
		StartTime:  time.Now(),
		IsActive:   true,
	}
	if _, err := db.NewInsert().Model(bill).Exec(ctx); err != nil {
		return err
	}

	items := []models.BillItem{
		{Name: "Caesar Salad", Price: decimal.RequireFromString("18.50"), Quantity: decimal.NewFromInt(1), PaidQuantity: decimal.Zero},
		{Name: "Grilled Salmon", Price: decimal.RequireFromString("32.00"), Quantity: decimal.NewFromInt(1), PaidQuantity: decimal.Zero},
		{Name: "Wine Bottle (Shared)", Price: decimal.RequireFromString("45.00"), Quantity: decimal.NewFromInt(1), PaidQuantity: decimal.RequireFromString("0.5")},
		{Name: "Dessert", Price: decimal.RequireFromString("12.00"), Quantity: decimal.NewFromInt(1), PaidQuantity: decimal.Zero},
	}
	for i := range items {
		items[i].ID = uuid.NewString()
		items[i].BillID = billID
		if _, err := db.NewInsert().Model(&items[i]).Exec(ctx); err != nil {
			return err
		}
	}

	type seedBill struct {
		guests int
		total  string
		paid   string
		status models.BillStatus
	}
	seeds := map[int]seedBill{
		3:  {guests: 2, total: "65.25", paid: "65.25", status: models.BillStatusPaid},
		5:  {guests: 3, total: "78.40", paid: "45.60", status: models.BillStatusPartial},
		12: {guests: 6, total: "156.75", paid: "0", status: models.BillStatusUnpaid},
	}

	for number := 3; number <= 12; number++ {
		if number == 7 {
			continue
		}
		tID := uuid.NewString()
		t := &models.Table{
			ID:             tID,
			Number:         number,
			RestaurantName: "Bella Vista Restaurant",
			QRCode:         fmt.Sprintf("https://splitbill.app/t/%d/bella-vista-restaurant", number),
			IsActive:       true,
			CreatedAt:      time.Now(),
		}
		if _, err := db.NewInsert().Model(t).Exec(ctx); err != nil {
			return err
		}

		sb, ok := seeds[number]
		if !ok {
			continue
		}
		total := decimal.RequireFromString(sb.total)
		paid := decimal.RequireFromString(sb.paid)
		status, remaining := models.DeriveBillStatus(total, paid)
		if status != sb.status {
			log.Printf("seed bill for table %d derived status %s, expected %s", number, status, sb.status)
		}
		b := &models.Bill{
			ID:         uuid.NewString(),
			TableID:    tID,
			Total:      total,
			Paid:       paid,
			Remaining:  remaining,
			Status:     status,
			GuestCount: sb.guests,
			StartTime:  time.Now().Add(-30 * time.Minute),
			IsActive:   true,
		}
		if _, err := db.NewInsert().Model(b).Exec(ctx); err != nil {
			return err
		}
	}

	log.Println("sample tables and bills seeded")
	return nil
}
