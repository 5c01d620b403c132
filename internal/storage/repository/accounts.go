package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
)

// ListActiveAccounts возвращает активные аккаунты пользователя,
// отсортированные по дате истечения по убыванию. Просроченные,
// но не отозванные аккаунты тоже попадают в выдачу.
func (s *Storage) ListActiveAccounts(ctx context.Context, userID int64) ([]*models.Account, error) {
	const op = "storage.ListActiveAccounts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, config, expiry_date, is_active
			  FROM accounts
			  WHERE user_id = $1 AND is_active = TRUE
			  ORDER BY expiry_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Account
	for rows.Next() {
		var item models.Account
		if err := rows.Scan(&item.ID, &item.UserID, &item.Config,
			&item.ExpiryDate, &item.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeactivateAccount снимает флаг активности с аккаунта пользователя.
// Возвращает количество изменённых строк.
func (s *Storage) DeactivateAccount(ctx context.Context, id, userID int64) (int, error) {
	const op = "storage.DeactivateAccount"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET is_active = FALSE
			  WHERE id = $1 AND user_id = $2 AND is_active = TRUE`
	result, err := s.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
