package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// MenuItem is immutable reference data from the cashier's point of view:
// orders snapshot name and price at submission and never read back.
type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Category    string
	Price       pgtype.Numeric
	Station     pgtype.Text
	PrepMinutes int32
	IsAvailable bool
	StockCount  int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID             uuid.UUID
	FullName       string
	Email          string
	HashedPassword string
	Pin            pgtype.Text
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Sale is the immutable receipt row written when an order is paid. The
// in-memory ledger owns open orders; this table only feeds reports.
type Sale struct {
	ID            uuid.UUID
	OrderNumber   string
	Customer      string
	PagerNumber   int32
	Subtotal      pgtype.Numeric
	VatAmount     pgtype.Numeric
	TipAmount     pgtype.Numeric
	TotalAmount   pgtype.Numeric
	PaymentMethod string
	ProcessedBy   uuid.UUID
	ProcessedAt   time.Time
}
