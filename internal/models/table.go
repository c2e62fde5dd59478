package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Table struct {
	bun.BaseModel `bun:"table:tables"`

	ID             string    `bun:"id,pk" json:"id"`
	Number         int       `bun:"number,notnull" json:"number"`
	RestaurantName string    `bun:"restaurant_name,notnull" json:"restaurantName"`
	QRCode         string    `bun:"qr_code,notnull" json:"qrCode"`
	IsActive       bool      `bun:"is_active" json:"isActive"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type TableRequest struct {
	Number         int    `json:"number" validate:"required,gt=0"`
	RestaurantName string `json:"restaurantName" validate:"required"`
}
