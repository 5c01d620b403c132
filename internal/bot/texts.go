package bot

import "fmt"

const welcomeText = `🌟 Добро пожаловать в магазин VPN, %s!

✅ Качественные аккаунты
✅ Поддержка 24/7
✅ Честные цены

Выберите один из пунктов меню ниже:`

const mainMenuText = `🌟 Главное меню:
Выберите один из пунктов:`

const plansText = `📦 Доступные тарифы:

Выберите подходящий тариф:`

const supportText = `💬 Поддержка:

👤 Telegram: @admin
📧 Почта: support@example.com

⏰ Часы ответа: с 9 утра до полуночи`

const aboutText = `ℹ️ О нас:

✅ Быстрые серверы
✅ Поддержка 24/7
✅ Честные цены
✅ Безлимитный трафик

Версия: 1.0.0`

const genericErrorText = "❌ Произошла ошибка. Пожалуйста, попробуйте ещё раз."

const noAccountsText = `📭 У вас нет активных аккаунтов.
Для покупки перейдите в раздел «Купить VPN».`

// formatAmount форматирует сумму с разделителями тысяч.
func formatAmount(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	return string(out)
}
