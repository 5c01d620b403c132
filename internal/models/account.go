package models

import (
	"math"
	"time"
)

// Account представляет выданный VPN-аккаунт: строку подключения
// и дату истечения. Создаётся один раз при подтверждении оплаты
// и после этого не изменяется; IsActive снимается только вручную.
type Account struct {
	ID         int64     // Идентификатор, выдаётся хранилищем
	UserID     int64     // Владелец аккаунта
	Config     string    // Строка подключения (из панели или подменная)
	ExpiryDate time.Time // Момент оплаты + длительность тарифа
	IsActive   bool      // Флаг ручного отзыва
}

// RemainingDays возвращает число полных дней до истечения аккаунта.
// Для просроченного аккаунта значение отрицательное.
func (a Account) RemainingDays(now time.Time) int {
	return int(math.Floor(a.ExpiryDate.Sub(now).Hours() / 24))
}
