package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
)

func TestStorage_UpsertUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	user := models.User{
		ID:        42,
		Username:  "alice",
		FirstName: "Alice",
		JoinDate:  time.Now(),
		IsAdmin:   false,
	}

	require.NoError(t, storage.UpsertUser(ctx, user))

	// повторная регистрация не меняет запись
	user.Username = "changed"
	require.NoError(t, storage.UpsertUser(ctx, user))

	got, err := storage.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.False(t, got.IsAdmin)

	// попадание в список администраторов поднимает флаг
	user.IsAdmin = true
	require.NoError(t, storage.UpsertUser(ctx, user))

	got, err = storage.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
}

func TestStorage_GetUser_NotFound(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	_, err := storage.GetUser(context.Background(), 999)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStorage_CountUsers(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 1, "a", "A", false)
	factory.CreateUser(t, 2, "b", "B", false)
	factory.CreateUser(t, 3, "c", "C", true)

	count, err := storage.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStorage_CreateAndGetOrder(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)

	id, err := storage.CreateOrder(ctx, GetTestOrder(42))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := storage.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "1month", got.PlanID)
	assert.Equal(t, int64(50000), got.Amount)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Nil(t, got.PaymentDate)
}

func TestStorage_GetOrder_NotFound(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	_, err := storage.GetOrder(context.Background(), 9999)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStorage_PayOrderAndCreateAccount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)
	orderID := factory.CreateOrder(t, 42, "1month", 50000, models.OrderStatusPending, time.Now())

	account := models.Account{
		UserID:     42,
		Config:     "vless://cfg",
		ExpiryDate: time.Now().AddDate(0, 0, 30),
		IsActive:   true,
	}

	rows, err := storage.PayOrderAndCreateAccount(ctx, orderID, time.Now(), account)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	got, err := storage.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	require.NotNil(t, got.PaymentDate)

	accounts, err := storage.ListActiveAccounts(ctx, 42)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "vless://cfg", accounts[0].Config)

	// повторная оплата не затрагивает строк и не создает второй аккаунт
	rows, err = storage.PayOrderAndCreateAccount(ctx, orderID, time.Now(), account)
	require.NoError(t, err)
	assert.Equal(t, 0, rows)

	accounts, err = storage.ListActiveAccounts(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	// несуществующий заказ
	rows, err = storage.PayOrderAndCreateAccount(ctx, 9999, time.Now(), account)
	require.NoError(t, err)
	assert.Equal(t, 0, rows)
}

func TestStorage_PayOrderAndCreateAccount_RollbackOnFailure(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)
	orderID := factory.CreateOrder(t, 42, "1month", 50000, models.OrderStatusPending, time.Now())

	// нарушение внешнего ключа на несуществующего пользователя
	// валит вставку аккаунта внутри транзакции
	broken := models.Account{
		UserID:     999,
		Config:     "vless://cfg",
		ExpiryDate: time.Now().AddDate(0, 0, 30),
		IsActive:   true,
	}
	_, err := storage.PayOrderAndCreateAccount(ctx, orderID, time.Now(), broken)
	require.Error(t, err)

	// заказ остался pending, оплату можно подтвердить повторно
	got, err := storage.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Nil(t, got.PaymentDate)

	valid := broken
	valid.UserID = 42
	rows, err := storage.PayOrderAndCreateAccount(ctx, orderID, time.Now(), valid)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	accounts, err := storage.ListActiveAccounts(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestStorage_ListPendingOrders(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	oldID := factory.CreateOrder(t, 42, "1month", 50000, models.OrderStatusPending, base)
	newID := factory.CreateOrder(t, 42, "3months", 120000, models.OrderStatusPending, base.Add(time.Hour))
	factory.CreateOrder(t, 42, "1year", 350000, models.OrderStatusPaid, base.Add(2*time.Hour))

	got, err := storage.ListPendingOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// новые заказы первыми, оплаченные не попадают
	assert.Equal(t, newID, got[0].ID)
	assert.Equal(t, oldID, got[1].ID)

	got, err = storage.ListPendingOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, newID, got[0].ID)
}

func TestStorage_OrderStats(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)
	now := time.Now()
	factory.CreateOrder(t, 42, "1month", 50000, models.OrderStatusPaid, now)
	factory.CreateOrder(t, 42, "3months", 120000, models.OrderStatusPaid, now)
	factory.CreateOrder(t, 42, "1year", 350000, models.OrderStatusPending, now)

	total, revenue, err := storage.OrderStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	// выручка считается только по оплаченным
	assert.Equal(t, int64(170000), revenue)
}

func TestStorage_ListActiveAccounts(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)
	factory.CreateUser(t, 43, "bob", "Bob", false)

	now := time.Now()
	factory.CreateAccount(t, 42, "vless://newer", now.AddDate(0, 0, 90), true)
	factory.CreateAccount(t, 42, "vless://older", now.AddDate(0, 0, 30), true)
	factory.CreateAccount(t, 42, "vless://revoked", now.AddDate(0, 0, 60), false)
	factory.CreateAccount(t, 43, "vless://other-user", now.AddDate(0, 0, 60), true)

	got, err := storage.ListActiveAccounts(ctx, 42)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// сортировка по дате истечения по убыванию, отозванные и чужие не попадают
	assert.Equal(t, "vless://newer", got[0].Config)
	assert.Equal(t, "vless://older", got[1].Config)
}

func TestStorage_DeactivateAccount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, 42, "alice", "Alice", false)
	accountID := factory.CreateAccount(t, 42, "vless://cfg", time.Now().AddDate(0, 0, 30), true)

	// чужой пользователь не может отозвать аккаунт
	rows, err := storage.DeactivateAccount(ctx, accountID, 999)
	require.NoError(t, err)
	assert.Equal(t, 0, rows)

	rows, err = storage.DeactivateAccount(ctx, accountID, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	got, err := storage.ListActiveAccounts(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, got)

	// повторный отзыв уже неактивного аккаунта
	rows, err = storage.DeactivateAccount(ctx, accountID, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, rows)
}

func TestStorage_Ready(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, storage.Ready(ctx))

	_, err := storage.DB.Exec(`DROP TABLE accounts, orders CASCADE`)
	require.NoError(t, err)

	err = storage.Ready(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orders")
	assert.NotContains(t, err.Error(), "%!w")
}

func TestStorage_ContextCancelled(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.GetOrder(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
