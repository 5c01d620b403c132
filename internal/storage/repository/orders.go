package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
)

// CreateOrder вставляет новый заказ со статусом pending и возвращает его ID.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) (int64, error) {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO orders (user_id, plan, amount, status, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		order.UserID, order.PlanID, order.Amount, order.Status, order.CreatedAt).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetOrder возвращает заказ по его ID.
func (s *Storage) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	const op = "storage.GetOrder"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan, amount, status, created_at, payment_date
			  FROM orders WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Order
	if err := row.Scan(&result.ID, &result.UserID, &result.PlanID, &result.Amount,
		&result.Status, &result.CreatedAt, &result.PaymentDate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// PayOrderAndCreateAccount переводит заказ из pending в paid и вставляет
// выданный аккаунт одной транзакцией: заказ не может стать оплаченным
// без аккаунта, при сбое вставки смена статуса откатывается.
// Возвращает количество изменённых строк заказа: ноль означает,
// что заказ отсутствует либо уже оплачен, аккаунт при этом не создаётся.
func (s *Storage) PayOrderAndCreateAccount(ctx context.Context, orderID int64, paidAt time.Time, account models.Account) (int, error) {
	const op = "storage.PayOrderAndCreateAccount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE orders
			  SET status = $1, payment_date = $2
			  WHERE id = $3 AND status = $4`
	result, err := tx.ExecContext(ctx, query,
		models.OrderStatusPaid, paidAt, orderID, models.OrderStatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	query = `INSERT INTO accounts (user_id, config, expiry_date, is_active)
			 VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, query,
		account.UserID, account.Config, account.ExpiryDate, account.IsActive); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListPendingOrders возвращает неоплаченные заказы, новые первыми.
func (s *Storage) ListPendingOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	const op = "storage.ListPendingOrders"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, plan, amount, status, created_at, payment_date
			  FROM orders
			  WHERE status = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, models.OrderStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Order
	for rows.Next() {
		var item models.Order
		if err := rows.Scan(&item.ID, &item.UserID, &item.PlanID, &item.Amount,
			&item.Status, &item.CreatedAt, &item.PaymentDate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// OrderStats возвращает количество заказов и суммарную выручку по оплаченным.
func (s *Storage) OrderStats(ctx context.Context) (int, int64, error) {
	const op = "storage.OrderStats"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*),
			      COALESCE(SUM(amount) FILTER (WHERE status = $1), 0)
			  FROM orders`
	var total int
	var revenue int64
	if err := s.DB.QueryRowContext(ctx, query, models.OrderStatusPaid).Scan(&total, &revenue); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, revenue, nil
}
