package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
)

// UpsertUser сохраняет пользователя при первом обращении.
// Повторный вызов для существующего пользователя не изменяет запись,
// кроме поднятия флага администратора.
func (s *Storage) UpsertUser(ctx context.Context, user models.User) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, username, first_name, join_date, is_admin)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_id) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.JoinDate, user.IsAdmin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.IsAdmin {
		query = `UPDATE users SET is_admin = TRUE WHERE user_id = $1`
		if _, err := s.DB.ExecContext(ctx, query, user.ID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// GetUser возвращает пользователя по идентификатору Telegram.
func (s *Storage) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, username, first_name, join_date, is_admin
			  FROM users
			  WHERE user_id = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userID)
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.JoinDate, &u.IsAdmin); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// CountUsers возвращает число зарегистрированных пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
