// Package stats реализует обработчик сводной статистики магазина:
// количество пользователей, заказов и суммарная выручка.
package stats

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/httpserv/response"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service StatsProvider
}

func New(log *slog.Logger, service StatsProvider) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats"
	log := h.log.With(slog.String("op", op))

	result, err := h.service.AdminStats(r.Context())
	if err != nil {
		log.Error("failed to collect stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to collect stats"))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"users":   result.Users,
		"orders":  result.Orders,
		"revenue": result.Revenue,
	}))
}
