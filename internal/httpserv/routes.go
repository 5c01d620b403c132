// Package httpserv предоставляет маршруты служебного HTTP-сервера:
// проверка готовности, метрики и сводная статистика.
package httpserv

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/httpserv/handlers/health"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/httpserv/handlers/stats"
	shopservice "github.com/magabrotheeeer/vpn-shop-bot/internal/services/shop"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты служебного сервера.
func RegisterRoutes(r chi.Router, logger *slog.Logger, storage *repository.Storage, shopService *shopservice.ShopService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/healthz", health.New(logger, storage).ServeHTTP)
	r.Get("/api/v1/stats", stats.New(logger, shopService).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
}
