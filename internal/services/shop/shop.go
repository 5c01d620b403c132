// Package shop содержит бизнес-логику жизненного цикла заказа:
// выбор тарифа, создание заказа, подтверждение оплаты и выдачу аккаунта.
package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/catalog"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/metrics"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/panel"
)

// Ошибки бизнес-логики. Транспортный слой переводит их
// в сообщения пользователю; процесс они не роняют.
var (
	ErrInvalidPlan      = errors.New("unknown plan id")
	ErrNoPlanSelected   = errors.New("no plan selected")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderAlreadyPaid = errors.New("order already paid")
	ErrAccountNotFound  = errors.New("account not found")
)

// selectionTTL время жизни выбранного тарифа между нажатиями кнопок.
const selectionTTL = 15 * time.Minute

// ShopRepository определяет методы хранилища, нужные магазину.
type ShopRepository interface {
	// UpsertUser сохраняет пользователя при первом обращении, повтор — no-op.
	UpsertUser(ctx context.Context, user models.User) error
	// CreateOrder добавляет заказ и возвращает его ID.
	CreateOrder(ctx context.Context, order models.Order) (int64, error)
	// GetOrder возвращает заказ по ID.
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// PayOrderAndCreateAccount переводит pending-заказ в paid и вставляет
	// аккаунт одной транзакцией, возвращает число изменённых строк заказа.
	PayOrderAndCreateAccount(ctx context.Context, orderID int64, paidAt time.Time, account models.Account) (int, error)
	// ListActiveAccounts возвращает активные аккаунты пользователя.
	ListActiveAccounts(ctx context.Context, userID int64) ([]*models.Account, error)
	// DeactivateAccount снимает флаг активности, возвращает число изменённых строк.
	DeactivateAccount(ctx context.Context, id, userID int64) (int, error)
	// CountUsers возвращает число пользователей.
	CountUsers(ctx context.Context) (int, error)
	// OrderStats возвращает число заказов и выручку по оплаченным.
	OrderStats(ctx context.Context) (int, int64, error)
	// ListPendingOrders возвращает неоплаченные заказы.
	ListPendingOrders(ctx context.Context, limit int) ([]*models.Order, error)
}

// Cache описывает методы сессионного хранилища выбора тарифа.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Provisioner описывает выпуск учётки во внешней панели.
type Provisioner interface {
	CreateClient(ctx context.Context, label string, days int) panel.Result
}

// Invoice данные для показа платёжных инструкций после создания заказа.
type Invoice struct {
	OrderID  int64
	Amount   int64
	PlanName string
}

// Provisioned результат подтверждения оплаты: итоговый конфиг и срок действия.
type Provisioned struct {
	OrderID    int64
	PlanName   string
	Config     string
	ExpiryDate time.Time
}

// AccountView аккаунт с вычисленным остатком дней для показа пользователю.
type AccountView struct {
	Account       models.Account
	RemainingDays int
}

// Stats сводка для административной панели.
type Stats struct {
	Users   int
	Orders  int
	Revenue int64
}

// ShopService реализует контроллер жизненного цикла заказа.
// Панель опциональна: при nil-провижинере или его отказе
// выдаётся подменный конфиг.
type ShopService struct {
	repo    ShopRepository
	cache   Cache
	catalog *catalog.Catalog
	panel   Provisioner
	admins  map[int64]bool
	log     *slog.Logger
}

// New создаёт ShopService. provisioner может быть nil — тогда
// панель считается не настроенной.
func New(repo ShopRepository, cache Cache, cat *catalog.Catalog,
	provisioner Provisioner, adminIDs []int64, log *slog.Logger) *ShopService {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &ShopService{
		repo:    repo,
		cache:   cache,
		catalog: cat,
		panel:   provisioner,
		admins:  admins,
		log:     log,
	}
}

// IsAdmin проверяет идентификатор по списку допуска.
func (s *ShopService) IsAdmin(userID int64) bool {
	return s.admins[userID]
}

// RegisterUser сохраняет пользователя при первом обращении.
// Повторная регистрация — идемпотентный no-op.
func (s *ShopService) RegisterUser(ctx context.Context, userID int64, username, firstName string) error {
	user := models.User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		JoinDate:  time.Now(),
		IsAdmin:   s.admins[userID],
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return err
	}
	s.log.Info("user registered", slog.Int64("user_id", userID), slog.String("first_name", firstName))
	return nil
}

// ListPlans возвращает статический каталог тарифов.
func (s *ShopService) ListPlans() []models.Plan {
	return s.catalog.List()
}

// SelectPlan проверяет тариф по каталогу и запоминает выбор
// в сессии пользователя на время selectionTTL.
func (s *ShopService) SelectPlan(ctx context.Context, userID int64, planID string) (models.Plan, error) {
	plan, ok := s.catalog.Find(planID)
	if !ok {
		return models.Plan{}, ErrInvalidPlan
	}
	if err := s.cache.Set(selectionKey(userID), planID, selectionTTL); err != nil {
		return models.Plan{}, fmt.Errorf("save selection: %w", err)
	}
	s.log.Info("plan selected", slog.Int64("user_id", userID), slog.String("plan", planID))
	return plan, nil
}

// CreateOrder создаёт pending-заказ по ранее выбранному тарифу.
// Сумма заказа — снимок текущей цены каталога. Выбор после
// создания заказа очищается.
func (s *ShopService) CreateOrder(ctx context.Context, userID int64) (*Invoice, error) {
	var planID string
	found, err := s.cache.Get(selectionKey(userID), &planID)
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	if !found {
		return nil, ErrNoPlanSelected
	}
	plan, ok := s.catalog.Find(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	order := models.Order{
		UserID:    userID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Status:    models.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	id, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(selectionKey(userID)); err != nil {
		s.log.Warn("failed to clear selection", slog.Int64("user_id", userID), sl.Err(err))
	}

	metrics.OrdersCreated.Inc()
	s.log.Info("order created", slog.Int64("order_id", id),
		slog.Int64("user_id", userID), slog.String("plan", plan.ID))

	return &Invoice{OrderID: id, Amount: plan.Price, PlanName: plan.Name}, nil
}

// ConfirmPayment переводит заказ в paid и выдаёт ровно один аккаунт.
// Подтвердить заказ может только его владелец; чужой заказ неотличим
// от несуществующего. Повторное подтверждение того же заказа возвращает
// ErrOrderAlreadyPaid и второй аккаунт не создаёт. Смена статуса
// и вставка аккаунта выполняются одной транзакцией: при сбое записи
// аккаунта заказ остаётся pending и подтверждение можно повторить.
// displayName попадает в подменный конфиг.
func (s *ShopService) ConfirmPayment(ctx context.Context, orderID, userID int64, displayName string) (*Provisioned, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, ErrOrderAlreadyPaid
	}

	// тариф проверяется до смены статуса: заказ на исчезнувший
	// из каталога тариф остаётся pending
	plan, ok := s.catalog.Find(order.PlanID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	paidAt := time.Now()
	config := s.provisionConfig(ctx, order.UserID, displayName, plan.Days)
	expiry := paidAt.AddDate(0, 0, plan.Days)

	account := models.Account{
		UserID:     order.UserID,
		Config:     config,
		ExpiryDate: expiry,
		IsActive:   true,
	}
	rows, err := s.repo.PayOrderAndCreateAccount(ctx, orderID, paidAt, account)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// конкурирующее подтверждение успело первым
		return nil, ErrOrderAlreadyPaid
	}

	metrics.PaymentsConfirmed.Inc()
	s.log.Info("payment confirmed", slog.Int64("order_id", orderID),
		slog.Int64("user_id", order.UserID), slog.Time("expiry", expiry))

	return &Provisioned{
		OrderID:    orderID,
		PlanName:   plan.Name,
		Config:     config,
		ExpiryDate: expiry,
	}, nil
}

// provisionConfig получает конфиг из панели, а при её отсутствии
// или отказе строит подменный.
func (s *ShopService) provisionConfig(ctx context.Context, userID int64, displayName string, days int) string {
	if s.panel != nil {
		label := fmt.Sprintf("tg%d", userID)
		res := s.panel.CreateClient(ctx, label, days)
		if res.Success {
			return strings.Join([]string{res.Links.VLESS, res.Links.VMess, res.Links.Trojan}, "\n")
		}
		metrics.PanelProvisionFailures.Inc()
		s.log.Warn("panel provisioning failed, falling back to placeholder",
			slog.Int64("user_id", userID), slog.String("panel_error", res.Error))
	}
	return placeholderConfig(userID, displayName)
}

// placeholderConfig строит структурно корректную, но нерабочую
// строку подключения для режима без панели.
func placeholderConfig(userID int64, displayName string) string {
	return fmt.Sprintf(
		"vless://test@%d.com:443?path=%%2F&security=tls&encryption=none&type=ws#%s",
		userID, displayName)
}

// ListActiveAccounts возвращает активные аккаунты пользователя
// с остатком дней. Просроченные остаются в списке с отрицательным
// остатком: фильтра по дате нет, только по флагу активности.
func (s *ShopService) ListActiveAccounts(ctx context.Context, userID int64) ([]AccountView, error) {
	accounts, err := s.repo.ListActiveAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	result := make([]AccountView, 0, len(accounts))
	for _, acc := range accounts {
		result = append(result, AccountView{
			Account:       *acc,
			RemainingDays: acc.RemainingDays(now),
		})
	}
	return result, nil
}

// RevokeAccount вручную отзывает аккаунт пользователя.
func (s *ShopService) RevokeAccount(ctx context.Context, accountID, userID int64) error {
	rows, err := s.repo.DeactivateAccount(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	s.log.Info("account revoked", slog.Int64("account_id", accountID), slog.Int64("user_id", userID))
	return nil
}

// AdminStats возвращает сводку для административной панели.
func (s *ShopService) AdminStats(ctx context.Context) (*Stats, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	orders, revenue, err := s.repo.OrderStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Users: users, Orders: orders, Revenue: revenue}, nil
}

// PendingOrders возвращает неоплаченные заказы для административной панели.
func (s *ShopService) PendingOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	return s.repo.ListPendingOrders(ctx, limit)
}

func selectionKey(userID int64) string {
	return fmt.Sprintf("selection:%d", userID)
}
