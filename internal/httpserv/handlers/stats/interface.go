package stats

import (
	"context"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/services/shop"
)

// StatsProvider отдаёт сводную статистику магазина.
type StatsProvider interface {
	AdminStats(ctx context.Context) (*shop.Stats, error)
}
