package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreateSaleParams struct {
	OrderNumber   string
	Customer      string
	PagerNumber   int32
	Subtotal      pgtype.Numeric
	VatAmount     pgtype.Numeric
	TipAmount     pgtype.Numeric
	TotalAmount   pgtype.Numeric
	PaymentMethod string
	ProcessedBy   uuid.UUID
}

func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	var s Sale
	err := q.db.QueryRow(ctx, `
		INSERT INTO sales (order_number, customer, pager_number, subtotal, vat_amount,
		                   tip_amount, total_amount, payment_method, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, order_number, customer, pager_number, subtotal, vat_amount,
		          tip_amount, total_amount, payment_method, processed_by, processed_at`,
		arg.OrderNumber, arg.Customer, arg.PagerNumber, arg.Subtotal, arg.VatAmount,
		arg.TipAmount, arg.TotalAmount, arg.PaymentMethod, arg.ProcessedBy).
		Scan(&s.ID, &s.OrderNumber, &s.Customer, &s.PagerNumber, &s.Subtotal,
			&s.VatAmount, &s.TipAmount, &s.TotalAmount, &s.PaymentMethod,
			&s.ProcessedBy, &s.ProcessedAt)
	return s, err
}

type GetDailySalesRow struct {
	SaleCount    int64
	Subtotal     pgtype.Numeric
	VatAmount    pgtype.Numeric
	TipAmount    pgtype.Numeric
	TotalRevenue pgtype.Numeric
}

// GetDailySales aggregates the sales log for one calendar day.
func (q *Queries) GetDailySales(ctx context.Context, day time.Time) (GetDailySalesRow, error) {
	var r GetDailySalesRow
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(subtotal), 0),
		       COALESCE(SUM(vat_amount), 0),
		       COALESCE(SUM(tip_amount), 0),
		       COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE processed_at >= $1 AND processed_at < $1 + INTERVAL '1 day'`,
		day).
		Scan(&r.SaleCount, &r.Subtotal, &r.VatAmount, &r.TipAmount, &r.TotalRevenue)
	return r, err
}

type GetPaymentSummaryRow struct {
	PaymentMethod string
	SaleCount     int64
	TotalAmount   pgtype.Numeric
}

// GetPaymentSummary breaks one day's takings down by payment method.
func (q *Queries) GetPaymentSummary(ctx context.Context, day time.Time) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT payment_method, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM sales
		WHERE processed_at >= $1 AND processed_at < $1 + INTERVAL '1 day'
		GROUP BY payment_method
		ORDER BY payment_method`,
		day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GetPaymentSummaryRow
	for rows.Next() {
		var r GetPaymentSummaryRow
		if err := rows.Scan(&r.PaymentMethod, &r.SaleCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
