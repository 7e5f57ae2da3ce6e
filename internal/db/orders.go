package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/GK-FY/buybot/internal/order"
)

// OrderLedger is the Postgres-backed order.Ledger.
type OrderLedger struct {
	db *DB
}

func NewOrderLedger(db *DB) *OrderLedger {
	return &OrderLedger{db: db}
}

const orderColumns = "order_id, customer, package, amount, recipient, payment, status, created_at, remark, bonus_credited"

func (l *OrderLedger) Create(customer, pkg string, amount int64) (order.Order, error) {
	ctx := context.Background()
	for {
		o := order.Order{
			OrderID:   order.NewID(),
			Customer:  customer,
			Package:   pkg,
			Amount:    amount,
			Status:    order.StatusPending,
			Timestamp: time.Now(),
		}
		_, err := l.db.pool.Exec(ctx,
			"INSERT INTO orders (order_id, customer, package, amount, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
			o.OrderID, o.Customer, o.Package, o.Amount, o.Status, o.Timestamp,
		)
		if err != nil {
			// Retry on an order-id collision, fail on anything else
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				continue
			}
			return order.Order{}, err
		}
		return o, nil
	}
}

func (l *OrderLedger) Get(orderID string) (order.Order, error) {
	var o order.Order
	err := l.db.pool.QueryRow(context.Background(),
		"SELECT "+orderColumns+" FROM orders WHERE order_id = $1", orderID,
	).Scan(&o.OrderID, &o.Customer, &o.Package, &o.Amount, &o.Recipient, &o.Payment, &o.Status, &o.Timestamp, &o.Remark, &o.BonusCredited)
	if err != nil {
		if err == pgx.ErrNoRows {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (l *OrderLedger) SetRecipient(orderID, phone string) error {
	return l.setField(orderID, "recipient", phone)
}

func (l *OrderLedger) SetPayment(orderID, phone string) error {
	return l.setField(orderID, "payment", phone)
}

func (l *OrderLedger) setField(orderID, column, value string) error {
	result, err := l.db.pool.Exec(context.Background(),
		"UPDATE orders SET "+column+" = $2 WHERE order_id = $1", orderID, value)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (l *OrderLedger) UpdateStatus(orderID, status, remark string) (order.Order, error) {
	var o order.Order
	err := l.db.pool.QueryRow(context.Background(),
		"UPDATE orders SET status = $2, remark = $3 WHERE order_id = $1 RETURNING "+orderColumns,
		orderID, status, remark,
	).Scan(&o.OrderID, &o.Customer, &o.Package, &o.Amount, &o.Recipient, &o.Payment, &o.Status, &o.Timestamp, &o.Remark, &o.BonusCredited)
	if err != nil {
		if err == pgx.ErrNoRows {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (l *OrderLedger) MarkBonusCredited(orderID string) (bool, error) {
	result, err := l.db.pool.Exec(context.Background(),
		"UPDATE orders SET bonus_credited = TRUE WHERE order_id = $1 AND NOT bonus_credited", orderID)
	if err != nil {
		return false, err
	}
	if result.RowsAffected() > 0 {
		return true, nil
	}
	// Distinguish already-credited from missing
	if _, err := l.Get(orderID); err != nil {
		return false, err
	}
	return false, nil
}

func (l *OrderLedger) LatestPending(customer string) (order.Order, error) {
	var o order.Order
	err := l.db.pool.QueryRow(context.Background(),
		"SELECT "+orderColumns+" FROM orders WHERE customer = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1",
		customer, order.StatusPending,
	).Scan(&o.OrderID, &o.Customer, &o.Package, &o.Amount, &o.Recipient, &o.Payment, &o.Status, &o.Timestamp, &o.Remark, &o.BonusCredited)
	if err != nil {
		if err == pgx.ErrNoRows {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (l *OrderLedger) ByCustomer(customer string) ([]order.Order, error) {
	return l.query("SELECT "+orderColumns+" FROM orders WHERE customer = $1 ORDER BY created_at", customer)
}

func (l *OrderLedger) All() ([]order.Order, error) {
	return l.query("SELECT " + orderColumns + " FROM orders ORDER BY created_at")
}

func (l *OrderLedger) query(sql string, args ...any) ([]order.Order, error) {
	rows, err := l.db.pool.Query(context.Background(), sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(&o.OrderID, &o.Customer, &o.Package, &o.Amount, &o.Recipient, &o.Payment, &o.Status, &o.Timestamp, &o.Remark, &o.BonusCredited); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
