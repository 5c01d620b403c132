// Package app собирает приложение: хранилище, миграции, кэш,
// панель XUI, контроллер заказов, телеграм-бота и служебный HTTP-сервер.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/magabrotheeeer/vpn-shop-bot/internal/bot"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/cache"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/catalog"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/config"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/httpserv"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/migrations"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/panel"
	shopservice "github.com/magabrotheeeer/vpn-shop-bot/internal/services/shop"
	"github.com/magabrotheeeer/vpn-shop-bot/internal/storage/repository"
)

// App объединяет телеграм-бота и служебный HTTP-сервер
// поверх общего контроллера заказов.
type App struct {
	bot    *bot.Bot
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Панель опциональна: без настроек бот выдаёт подменный конфиг.
	var provisioner shopservice.Provisioner
	if cfg.Panel.Complete() {
		panelClient, err := panel.NewClient(cfg.Panel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !panelClient.Login(ctx) {
			logger.Warn("panel login failed, provisioning will fall back to placeholder configs")
		}
		provisioner = panelClient
	} else {
		logger.Info("panel is not configured, placeholder configs will be issued")
	}

	shopService := shopservice.New(db, cacheRedis, catalog.Default(), provisioner, cfg.AdminIDs, logger)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	httpserv.RegisterRoutes(router, logger, db, shopService)

	srv := &http.Server{
		Addr:         cfg.OpsServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.OpsServer.TimeoutHTTP,
		WriteTimeout: cfg.OpsServer.TimeoutHTTP,
		IdleTimeout:  cfg.OpsServer.IdleTimeout,
	}

	return &App{
		bot:    bot.New(api, shopService, cfg.PaymentAddress, logger),
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает бота и служебный сервер и блокируется
// до отмены контекста или фатальной ошибки любого из них.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("ops HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	go func() {
		errCh <- a.bot.Run(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.cache.Close(); closeErr != nil {
			a.logger.Warn("failed to close redis connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
