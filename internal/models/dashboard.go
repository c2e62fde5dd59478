package models

import "time"

// DashboardTable is the staff-facing read model joining a table with its
// active bill and that bill's items. Derived on every read, never stored.
type DashboardTable struct {
	ID             string     `json:"id"`
	Number         int        `json:"number"`
	RestaurantName string     `json:"restaurantName"`
	Bill           *Bill      `json:"bill"`
	Items          []BillItem `json:"items"`
	GuestCount     int        `json:"guestCount"`
	StartTime      *time.Time `json:"startTime"`
}

// DashboardSummary partitions the active tables by bill status.
type DashboardSummary struct {
	TotalTables   int `json:"totalTables"`
	ActiveTables  int `json:"activeTables"`
	PaidTables    int `json:"paidTables"`
	PartialTables int `json:"partialTables"`
	UnpaidTables  int `json:"unpaidTables"`
}
