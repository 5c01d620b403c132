package bot

import (
	"strconv"
	"strings"
)

// routeKind тип нажатой кнопки после разбора callback-данных.
type routeKind int

const (
	routeUnknown routeKind = iota
	routeBuy
	routeMyAccounts
	routeSupport
	routeAbout
	routeMainMenu
	routeConfirmPayment
	routeSelectPlan
	routePaymentDone
	routeAdminStats
	routeAdminOrders
)

// callbackRoute результат разбора callback-данных кнопки.
type callbackRoute struct {
	kind    routeKind
	planID  string
	orderID int64
}

// Префиксы callback-данных. Соглашение фиксированное:
// plan_<planId> и payment_done_<orderId>, остальные токены без параметров.
const (
	prefixPlan        = "plan_"
	prefixPaymentDone = "payment_done_"
)

// parseCallback разбирает callback-данные кнопки в маршрут.
// Неизвестные данные дают routeUnknown и молча игнорируются.
func parseCallback(data string) callbackRoute {
	switch data {
	case "buy":
		return callbackRoute{kind: routeBuy}
	case "my_accounts":
		return callbackRoute{kind: routeMyAccounts}
	case "support":
		return callbackRoute{kind: routeSupport}
	case "about":
		return callbackRoute{kind: routeAbout}
	case "main_menu":
		return callbackRoute{kind: routeMainMenu}
	case "confirm_payment":
		return callbackRoute{kind: routeConfirmPayment}
	case "admin_stats":
		return callbackRoute{kind: routeAdminStats}
	case "admin_orders":
		return callbackRoute{kind: routeAdminOrders}
	}

	if planID, ok := strings.CutPrefix(data, prefixPlan); ok && planID != "" {
		return callbackRoute{kind: routeSelectPlan, planID: planID}
	}
	if rawID, ok := strings.CutPrefix(data, prefixPaymentDone); ok {
		orderID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return callbackRoute{kind: routeUnknown}
		}
		return callbackRoute{kind: routePaymentDone, orderID: orderID}
	}
	return callbackRoute{kind: routeUnknown}
}
