// Package metrics содержит счётчики Prometheus магазина.
// Значения отдаются служебным HTTP-сервером на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated количество созданных заказов.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vpn_shop_orders_created_total",
		Help: "Number of orders created.",
	})

	// PaymentsConfirmed количество подтверждённых оплат.
	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vpn_shop_payments_confirmed_total",
		Help: "Number of payments confirmed.",
	})

	// PanelProvisionFailures количество отказов панели,
	// завершившихся выдачей подменного конфига.
	PanelProvisionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vpn_shop_panel_provision_failures_total",
		Help: "Number of panel provisioning failures that fell back to a placeholder config.",
	})
)
