// Package bot реализует транспортный слой Telegram: меню, кнопки
// и маршрутизацию нажатий в контроллер заказов. Любая ошибка обработки
// одного события превращается в общее сообщение об ошибке пользователю
// и процесс не роняет.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/lib/sl"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/models"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/services/shop"
)

// pendingOrdersLimit максимум заказов в административной выдаче.
const pendingOrdersLimit = 20

// Пороги обслуживания карты ограничителей: при достижении
// limiterSweepSize из карты выбрасываются записи, не встречавшиеся
// дольше limiterIdleTTL.
const (
	limiterSweepSize = 1000
	limiterIdleTTL   = 10 * time.Minute
)

// Service описывает операции контроллера заказов, нужные транспорту.
type Service interface {
	RegisterUser(ctx context.Context, userID int64, username, firstName string) error
	ListPlans() []models.Plan
	SelectPlan(ctx context.Context, userID int64, planID string) (models.Plan, error)
	CreateOrder(ctx context.Context, userID int64) (*shop.Invoice, error)
	ConfirmPayment(ctx context.Context, orderID, userID int64, displayName string) (*shop.Provisioned, error)
	ListActiveAccounts(ctx context.Context, userID int64) ([]shop.AccountView, error)
	RevokeAccount(ctx context.Context, accountID, userID int64) error
	AdminStats(ctx context.Context) (*shop.Stats, error)
	PendingOrders(ctx context.Context, limit int) ([]*models.Order, error)
	IsAdmin(userID int64) bool
}

// Bot связывает Telegram API с контроллером заказов.
type Bot struct {
	api            *tgbotapi.BotAPI
	service        Service
	paymentAddress string
	log            *slog.Logger
	// ограничители частоты нажатий; цикл обработки однопоточный,
	// поэтому доступ к карте не синхронизируется
	limiters map[int64]*userLimiter
}

// userLimiter ограничитель одного пользователя с отметкой последнего
// обращения для вытеснения простаивающих записей.
type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New создаёт бота поверх готового подключения к Telegram API.
func New(api *tgbotapi.BotAPI, service Service, paymentAddress string, log *slog.Logger) *Bot {
	return &Bot{
		api:            api,
		service:        service,
		paymentAddress: paymentAddress,
		log:            log,
		limiters:       make(map[int64]*userLimiter),
	}
}

// Run запускает цикл длинного опроса. События обрабатываются
// строго по одному; завершение по отмене контекста.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("bot started", slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if msg := update.Message; msg != nil {
				b.handleMessage(ctx, msg)
				continue
			}
			if cq := update.CallbackQuery; cq != nil && cq.Message != nil {
				b.handleCallback(ctx, cq)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	const op = "bot.handleMessage"
	log := b.log.With(slog.String("op", op), slog.Int64("user_id", msg.From.ID))

	switch msg.Command() {
	case "start":
		username := msg.From.UserName
		if err := b.service.RegisterUser(ctx, msg.From.ID, username, msg.From.FirstName); err != nil {
			log.Error("failed to register user", sl.Err(err))
			b.send(tgbotapi.NewMessage(msg.Chat.ID, genericErrorText))
			return
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(welcomeText, msg.From.FirstName))
		reply.ReplyMarkup = mainMenuKeyboard()
		b.send(reply)
	case "admin":
		if !b.service.IsAdmin(msg.From.ID) {
			return
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, "🛠 Административная панель:")
		reply.ReplyMarkup = adminKeyboard()
		b.send(reply)
	case "revoke":
		if !b.service.IsAdmin(msg.From.ID) {
			return
		}
		b.handleRevoke(ctx, msg)
	}
}

// handleRevoke обрабатывает команду /revoke <accountID> <userID>.
func (b *Bot) handleRevoke(ctx context.Context, msg *tgbotapi.Message) {
	const op = "bot.handleRevoke"
	log := b.log.With(slog.String("op", op), slog.Int64("user_id", msg.From.ID))

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Использование: /revoke <id аккаунта> <id пользователя>"))
		return
	}
	accountID, err1 := strconv.ParseInt(args[0], 10, 64)
	userID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Использование: /revoke <id аккаунта> <id пользователя>"))
		return
	}

	if err := b.service.RevokeAccount(ctx, accountID, userID); err != nil {
		if errors.Is(err, shop.ErrAccountNotFound) {
			b.send(tgbotapi.NewMessage(msg.Chat.ID, "❌ Аккаунт не найден."))
			return
		}
		log.Error("failed to revoke account", sl.Err(err))
		b.send(tgbotapi.NewMessage(msg.Chat.ID, genericErrorText))
		return
	}
	b.send(tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("✅ Аккаунт %d отозван.", accountID)))
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	const op = "bot.handleCallback"
	log := b.log.With(slog.String("op", op), slog.Int64("user_id", cq.From.ID))

	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Warn("failed to answer callback", sl.Err(err))
	}

	if !b.allow(cq.From.ID) {
		log.Warn("too many requests, callback dropped")
		return
	}

	route := parseCallback(cq.Data)
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID

	var err error
	switch route.kind {
	case routeBuy:
		err = b.showPlans(chatID, messageID)
	case routeMyAccounts:
		err = b.showAccounts(ctx, cq)
	case routeSupport:
		err = b.edit(chatID, messageID, supportText, backToMenuKeyboard())
	case routeAbout:
		err = b.edit(chatID, messageID, aboutText, backToMenuKeyboard())
	case routeMainMenu:
		err = b.edit(chatID, messageID, mainMenuText, mainMenuKeyboard())
	case routeSelectPlan:
		err = b.showPlanSummary(ctx, cq, route.planID)
	case routeConfirmPayment:
		err = b.createOrder(ctx, cq)
	case routePaymentDone:
		err = b.confirmPayment(ctx, cq, route.orderID)
	case routeAdminStats:
		err = b.showAdminStats(ctx, cq)
	case routeAdminOrders:
		err = b.showPendingOrders(ctx, cq)
	case routeUnknown:
		log.Warn("unknown callback data", slog.String("data", cq.Data))
		return
	}

	if err != nil {
		log.Error("callback handling failed", slog.String("data", cq.Data), sl.Err(err))
		if editErr := b.edit(chatID, messageID, genericErrorText, backToMenuKeyboard()); editErr != nil {
			log.Error("failed to show error message", sl.Err(editErr))
		}
	}
}

func (b *Bot) showPlans(chatID int64, messageID int) error {
	return b.edit(chatID, messageID, plansText, plansKeyboard(b.service.ListPlans()))
}

func (b *Bot) showPlanSummary(ctx context.Context, cq *tgbotapi.CallbackQuery, planID string) error {
	plan, err := b.service.SelectPlan(ctx, cq.From.ID, planID)
	if err != nil {
		if errors.Is(err, shop.ErrInvalidPlan) {
			return b.edit(cq.Message.Chat.ID, cq.Message.MessageID,
				"❌ Выбранный тариф недоступен!", backToMenuKeyboard())
		}
		return err
	}

	text := fmt.Sprintf(`📋 Ваш заказ:

📦 Тариф: %s
⏱ Срок: %d дней
💰 Сумма: %s

Для продолжения нажмите кнопку ниже:`,
		plan.Name, plan.Days, formatAmount(plan.Price))
	return b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, planConfirmKeyboard())
}

func (b *Bot) createOrder(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	invoice, err := b.service.CreateOrder(ctx, cq.From.ID)
	if err != nil {
		if errors.Is(err, shop.ErrNoPlanSelected) {
			return b.edit(cq.Message.Chat.ID, cq.Message.MessageID,
				"❌ Тариф не выбран. Пожалуйста, начните сначала.", backToMenuKeyboard())
		}
		return err
	}

	text := fmt.Sprintf(`🆔 Номер заказа: %d
💰 Сумма к оплате: %s

💳 Переведите сумму на реквизиты:
👤 %s

⚠️ После перевода нажмите кнопку «Оплата выполнена».`,
		invoice.OrderID, formatAmount(invoice.Amount), b.paymentAddress)
	return b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, paymentKeyboard(invoice.OrderID))
}

func (b *Bot) confirmPayment(ctx context.Context, cq *tgbotapi.CallbackQuery, orderID int64) error {
	provisioned, err := b.service.ConfirmPayment(ctx, orderID, cq.From.ID, cq.From.FirstName)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrOrderNotFound):
			return b.edit(cq.Message.Chat.ID, cq.Message.MessageID,
				"❌ Заказ не найден!", backToMenuKeyboard())
		case errors.Is(err, shop.ErrOrderAlreadyPaid):
			return b.edit(cq.Message.Chat.ID, cq.Message.MessageID,
				"✅ Оплата по этому заказу уже подтверждена. Конфиг в разделе «Мои аккаунты».",
				backToMenuKeyboard())
		default:
			return err
		}
	}

	text := fmt.Sprintf(`✅ Оплата подтверждена!

🆔 Номер заказа: %d
📦 Тариф: %s

🔗 Ваш конфиг:
%s

📅 Действует до: %s

⚠️ Конфиг персональный, никому его не передавайте!`,
		provisioned.OrderID, provisioned.PlanName, provisioned.Config,
		provisioned.ExpiryDate.Format("2006/01/02"))
	return b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, backToMenuKeyboard())
}

func (b *Bot) showAccounts(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	accounts, err := b.service.ListActiveAccounts(ctx, cq.From.ID)
	if err != nil {
		return err
	}

	var text string
	if len(accounts) == 0 {
		text = noAccountsText
	} else {
		var sb strings.Builder
		sb.WriteString("📋 Ваши активные аккаунты:\n\n")
		for _, acc := range accounts {
			fmt.Fprintf(&sb, "🔹 Аккаунт #%d\n", acc.Account.ID)
			fmt.Fprintf(&sb, "   📅 Действует до: %s\n", acc.Account.ExpiryDate.Format("2006/01/02"))
			fmt.Fprintf(&sb, "   ⏳ Осталось дней: %d\n", acc.RemainingDays)
			fmt.Fprintf(&sb, "   🔗 Конфиг: %s\n\n", acc.Account.Config)
		}
		text = sb.String()
	}
	return b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, backToMenuKeyboard())
}

func (b *Bot) showAdminStats(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if !b.service.IsAdmin(cq.From.ID) {
		return nil
	}
	stats, err := b.service.AdminStats(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(`📊 Статистика магазина:

👥 Пользователей: %d
🧾 Заказов: %d
💰 Выручка: %s`,
		stats.Users, stats.Orders, formatAmount(stats.Revenue))
	return b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, adminKeyboard())
}

func (b *Bot) showPendingOrders(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if !b.service.IsAdmin(cq.From.ID) {
		return nil
	}
	orders, err := b.service.PendingOrders(ctx, pendingOrdersLimit)
	if err != nil {
		return err
	}

	var text string
	if len(orders) == 0 {
		text = "✅ Нет заказов, ожидающих оплаты."
	} else {
		var sb strings.Builder
		sb.WriteString("🧾 Заказы, ожидающие оплаты:\n\n")
		for _, order := range orders {
			fmt.Fprintf(&sb, "#%d — пользователь %d, тариф %s, %s (%s)\n",
				order.ID, order.UserID, order.PlanID,
				formatAmount(order.Amount), order.CreatedAt.Format("2006-01-02 15:04"))
		}
		text = sb.String()
	}
	return b.edit(cq.Message.Chat.ID, cq.Message.MessageID, text, adminKeyboard())
}

// allow проверяет лимит частоты нажатий для пользователя.
// Карта ограничителей не растёт бесконечно: при достижении порога
// простаивающие записи вытесняются.
func (b *Bot) allow(userID int64) bool {
	now := time.Now()
	if len(b.limiters) >= limiterSweepSize {
		for id, ul := range b.limiters {
			if now.Sub(ul.lastSeen) > limiterIdleTTL {
				delete(b.limiters, id)
			}
		}
	}

	ul, ok := b.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(1, 3)}
		b.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.Allow()
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", sl.Err(err))
	}
}
