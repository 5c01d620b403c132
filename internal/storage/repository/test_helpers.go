package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя
func (f *TestDataFactory) CreateUser(t *testing.T, userID int64, username, firstName string, isAdmin bool) {
	_, err := f.storage.DB.Exec(`INSERT INTO users (user_id, username, first_name, join_date, is_admin)
		VALUES ($1, $2, $3, NOW(), $4)`,
		userID, username, firstName, isAdmin)
	require.NoError(t, err)
}

// CreateOrder создает тестовый заказ и возвращает его ID
func (f *TestDataFactory) CreateOrder(t *testing.T, userID int64, planID string, amount int64, status string, createdAt time.Time) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO orders (user_id, plan, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		userID, planID, amount, status, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateAccount создает тестовый аккаунт и возвращает его ID
func (f *TestDataFactory) CreateAccount(t *testing.T, userID int64, config string, expiryDate time.Time, isActive bool) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO accounts (user_id, config, expiry_date, is_active)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		userID, config, expiryDate, isActive).Scan(&id)
	require.NoError(t, err)
	return id
}

// GetTestOrder возвращает стандартный тестовый заказ
func GetTestOrder(userID int64) models.Order {
	return models.Order{
		UserID:    userID,
		PlanID:    "1month",
		Amount:    50000,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// setupTestDatabase поднимает контейнер PostgreSQL и создает схему
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			err = storage.DB.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	// Создаем таблицы
	_, err = storage.DB.Exec(`
        DROP TABLE IF EXISTS accounts CASCADE;
        DROP TABLE IF EXISTS orders CASCADE;
        DROP TABLE IF EXISTS users CASCADE;

        CREATE TABLE users (
            user_id BIGINT PRIMARY KEY,
            username TEXT,
            first_name TEXT,
            join_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_admin BOOLEAN NOT NULL DEFAULT FALSE
        );

        CREATE TABLE orders (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(user_id),
            plan TEXT NOT NULL,
            amount BIGINT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            payment_date TIMESTAMPTZ
        );

        CREATE TABLE accounts (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(user_id),
            config TEXT NOT NULL,
            expiry_date TIMESTAMPTZ NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );

        CREATE INDEX idx_orders_user_id ON orders(user_id);
        CREATE INDEX idx_orders_status ON orders(status);
        CREATE INDEX idx_accounts_user_id ON accounts(user_id);
    `)
	require.NoError(t, err, "failed to create schema")

	cleanup := func() {
		_ = storage.DB.Close()
		_ = postgresContainer.Terminate(ctx)
	}
	return storage, cleanup
}
