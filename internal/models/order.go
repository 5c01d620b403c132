package models

import "time"

// Статусы заказа. Переход единственный: pending -> paid,
// отмены и возврата в pending не существует.
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Order представляет намерение пользователя купить тариф.
// Поле Amount — снимок цены тарифа на момент создания заказа:
// последующие изменения каталога исторические заказы не затрагивают.
type Order struct {
	ID          int64      // Идентификатор, выдаётся хранилищем
	UserID      int64      // Владелец заказа
	PlanID      string     // Идентификатор тарифа из каталога
	Amount      int64      // Цена на момент создания
	Status      string     // pending или paid
	CreatedAt   time.Time  // Дата создания
	PaymentDate *time.Time // Дата подтверждения оплаты, nil до оплаты
}
