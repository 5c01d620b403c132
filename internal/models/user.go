// Package models содержит доменные структуры магазина: пользователей,
// тарифы, заказы и выданные VPN-аккаунты. Структуры используются
// в бизнес-логике и при работе с хранилищем.
package models

import "time"

// User представляет пользователя Telegram, написавшего боту.
// Запись создаётся при первом обращении и никогда не удаляется.
type User struct {
	ID        int64     // Идентификатор Telegram
	Username  string    // Ник в Telegram (может быть пустым)
	FirstName string    // Отображаемое имя
	JoinDate  time.Time // Дата первого обращения
	IsAdmin   bool      // Флаг администратора из списка допуска
}
