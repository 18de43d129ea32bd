package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"blossoms/internal/domain"
)

var _ domain.OrderRepository = (*OrderRepo)(nil)

// OrderRepo stores orders and their shipping details in SQL.
type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

type orderRow struct {
	ID                  string          `db:"id"`
	CustomerName        string          `db:"customer_name"`
	CustomerEmail       string          `db:"customer_email"`
	Total               decimal.Decimal `db:"total"`
	ShippingStatus      string          `db:"shipping_status"`
	EstimatedDeliveryAt sql.NullInt64   `db:"estimated_delivery_at"`
	CreatedAt           int64           `db:"created_at"`
}

const orderCols = `
    id, customer_name, customer_email, total, shipping_status, estimated_delivery_at, created_at`

func (r orderRow) order() domain.Order {
	o := domain.Order{
		ID:            r.ID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Total:         r.Total,
		PrimaryInfo:   domain.PrimaryInfo{ShippingStatus: r.ShippingStatus},
		CreatedAt:     time.UnixMilli(r.CreatedAt).UTC(),
	}
	if r.EstimatedDeliveryAt.Valid {
		t := time.UnixMilli(r.EstimatedDeliveryAt.Int64).UTC()
		o.PrimaryInfo.EstimatedDeliveryDate = &t
	}
	return o
}

func (r *OrderRepo) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	const op = "OrderRepo.Insert"
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	row := orderRow{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		Total:          o.Total,
		ShippingStatus: o.PrimaryInfo.ShippingStatus,
		CreatedAt:      o.CreatedAt.UnixMilli(),
	}
	if d := o.PrimaryInfo.EstimatedDeliveryDate; d != nil {
		row.EstimatedDeliveryAt = sql.NullInt64{Int64: d.UnixMilli(), Valid: true}
	}
	_, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO orders
	    (id, customer_name, customer_email, total, shipping_status, estimated_delivery_at, created_at)
	  VALUES
	    (:id, :customer_name, :customer_email, :total, :shipping_status, :estimated_delivery_at, :created_at)
	`, row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return r.Get(ctx, o.ID)
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	const op = "OrderRepo.Get"
	var row orderRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT`+orderCols+` FROM orders WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return row.order(), nil
}

func (r *OrderRepo) UpdateShippingStatus(ctx context.Context, id, status string) (domain.Order, error) {
	const op = "OrderRepo.UpdateShippingStatus"
	var row orderRow
	err := r.db.GetContext(ctx, &row,
		r.db.Rebind(`UPDATE orders SET shipping_status = ? WHERE id = ? RETURNING`+orderCols), status, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return row.order(), nil
}

// MarkDelivered is a single conditional bulk UPDATE; each row changes
// atomically, the statement as a whole is not coordinated with other writers.
func (r *OrderRepo) MarkDelivered(ctx context.Context, now time.Time) (int64, error) {
	const op = "OrderRepo.MarkDelivered"
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE orders
		SET shipping_status = ?
		WHERE shipping_status <> ? AND estimated_delivery_at < ?
	`), domain.ShippingDelivered, domain.ShippingDelivered, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
