package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

// Conf is the order persistence layer backed by Postgres.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

// CreatePendingOrder persists the order and its line items with status
// PENDING before any stock is touched. If the process dies after payment
// but before the stock commit, this row carries the transaction id needed
// to reconcile the charge.
func (c *Conf) CreatePendingOrder(ctx context.Context, order *Order) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO orders (user_id, total_amount, status, payment_method, transaction_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`, order.UserID, order.TotalAmount, StatusPending, order.PaymentMethod, order.TransactionID).
			Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id
			`, order.ID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		order.Status = StatusPending
		return nil
	})
}

// CommitStock decrements stock for every line item and flips the order to
// COMPLETED, all in one transaction. Each decrement is conditional on
// enough stock remaining, so a concurrent checkout cannot oversell: a
// zero-row update aborts the whole transaction with StockConflictError.
func (c *Conf) CommitStock(ctx context.Context, orderID int64, items []OrderItem) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			res, err := tx.ExecContext(ctx, `
				UPDATE mangas
				SET stock = stock - $1, updated_at = NOW()
				WHERE id = $2 AND stock >= $1
			`, item.Quantity, item.ProductID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			if n == 0 {
				return &StockConflictError{ProductID: item.ProductID}
			}
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
		`, StatusCompleted, orderID)
		if err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}
		return nil
	})
}

// MarkCanceled flags an order whose payment succeeded but whose stock
// commit failed; the row keeps the transaction id for refund
// reconciliation.
func (c *Conf) MarkCanceled(ctx context.Context, orderID int64) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, StatusCanceled, orderID)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	return nil
}

const selectOrderColumns = `
	SELECT id, user_id, total_amount, status, payment_method, COALESCE(transaction_id, ''), created_at, updated_at
	FROM orders`

func (c *Conf) OrderByID(ctx context.Context, orderID int64) (Order, error) {
	var o Order
	err := c.db.QueryRowContext(ctx, selectOrderColumns+" WHERE id = $1", orderID).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentMethod,
		&o.TransactionID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	if err := c.attachItems(ctx, []*Order{&o}); err != nil {
		return Order{}, err
	}
	return o, nil
}

// OrdersByUser returns one page of the user's orders, newest first, with
// the total count ignoring pagination.
func (c *Conf) OrdersByUser(ctx context.Context, userID int64, page, limit int) ([]Order, int64, error) {
	var total int64
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE user_id = $1", userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := c.db.QueryContext(ctx,
		selectOrderColumns+" WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	list := []Order{}
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.PaymentMethod,
			&o.TransactionID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	refs := make([]*Order, len(list))
	for i := range list {
		refs[i] = &list[i]
	}
	if err := c.attachItems(ctx, refs); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (c *Conf) attachItems(ctx context.Context, list []*Order) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[int64]*Order, len(list))
	ph := ""
	args := make([]any, 0, len(list))
	for i, o := range list {
		byID[o.ID] = o
		o.Items = []OrderItem{}
		if i > 0 {
			ph += ", "
		}
		ph += fmt.Sprintf("$%d", i+1)
		args = append(args, o.ID)
	}

	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT oi.id, oi.order_id, oi.product_id, m.name, oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		JOIN mangas m ON m.id = oi.product_id
		WHERE oi.order_id IN (%s)
		ORDER BY oi.id`, ph), args...)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.Subtotal)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}
