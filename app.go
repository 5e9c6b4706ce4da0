package main

import (
	"context"
	"fmt"
	"time"

	"foodscan/broker"
	"foodscan/cart"
	"foodscan/checkout"
	"foodscan/config"
	"foodscan/db"
	"foodscan/localstore"
	"foodscan/pricing"
	"foodscan/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	sweepEvery      = 10 * time.Minute
	cartIdleTimeout = 30 * time.Minute
	staleCartHours  = 72
	botQueue        = "foodscan.bot"
)

// app holds the components shared by the serve and bot commands.
type app struct {
	cfg *config.Config
	log *zap.Logger

	events  broker.Publisher
	rabbit  *broker.RabbitMQ
	local   *localstore.Store
	writer  *cart.Writer
	backend *services.Backend
	carts   *cart.Registry
	placer  *checkout.Placer
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, events: broker.Nop{}}

	if err := db.Init(ctx, cfg.DB); err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if config.AutoMigrate() {
		if err := applyMigrations(ctx, log); err != nil {
			a.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	if cfg.Broker.URL != "" {
		r, err := broker.Dial(cfg.Broker.URL, log)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("broker: %w", err)
		}
		a.rabbit = r
		a.events = r
	} else {
		log.Info("RABBITMQ_URL not set, order events are not published")
	}

	var slots cart.SlotProvider = services.CartSlots{}
	if cfg.Cart.Store == config.CartStoreSQLite {
		local, err := localstore.Open(cfg.Cart.SQLitePath)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("cart store: %w", err)
		}
		a.local = local
		slots = local
	}
	log.Info("cart store ready", zap.String("store", cfg.Cart.Store))

	a.writer = cart.NewWriter(log.Named("cart-writer"), 0)
	a.carts = cart.NewRegistry(slots, a.writer, log.Named("cart"))
	a.backend = services.NewBackend(a.events, log.Named("services"), cfg.HTTP.PublicURL, cfg.Telegram.Username)
	a.placer = checkout.NewPlacer(a.backend, taxFor(cfg.Cart.TaxRate), log.Named("checkout"))
	return a, nil
}

func taxFor(rate float64) pricing.Tax {
	if rate == 0 {
		return pricing.NoTax
	}
	return pricing.FlatRate(decimal.NewFromFloat(rate))
}

// sweep evicts idle carts from memory and prunes stale rows until ctx ends.
func (a *app) sweep(ctx context.Context) error {
	t := time.NewTicker(sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		n, err := a.carts.Sweep(ctx, cartIdleTimeout)
		if err != nil {
			a.log.Warn("cart sweep failed", zap.Error(err))
		} else if n > 0 {
			a.log.Debug("idle carts evicted", zap.Int("count", n), zap.Int("live", a.carts.Len()))
		}
		if a.local == nil {
			if removed, err := services.DeleteStaleCarts(ctx, staleCartHours); err != nil {
				a.log.Warn("stale cart cleanup failed", zap.Error(err))
			} else if removed > 0 {
				a.log.Info("stale carts deleted", zap.Int64("count", removed))
			}
		}
		if err := services.DeleteExpiredSessions(ctx); err != nil {
			a.log.Warn("session cleanup failed", zap.Error(err))
		}
	}
}

// close flushes pending cart writes before the stores go away.
func (a *app) close() {
	if a.writer != nil {
		a.writer.Close()
	}
	if a.local != nil {
		if err := a.local.Close(); err != nil {
			a.log.Warn("close cart store", zap.Error(err))
		}
	}
	if a.rabbit != nil {
		if err := a.rabbit.Close(); err != nil {
			a.log.Warn("close broker", zap.Error(err))
		}
	}
	db.Close()
}
