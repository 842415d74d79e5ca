package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/broker"
	"github.com/tipflow/tip-backend/cache"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/livefeed"
	"github.com/tipflow/tip-backend/router"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

// gateway is the full provider surface the service uses.
type gateway interface {
	services.CheckoutGateway
	services.SubAccountGateway
}

// app owns the long-lived collaborators of one running service.
type app struct {
	engine  *gin.Engine
	ledger  *services.TipLedger
	hub     *livefeed.Hub
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			utils.ErrorLogger.Warnf("shutdown: %v", err)
		}
	}
}

// buildApp wires storage, gateway, cache, broker and HTTP. Redis and Kafka
// are optional and skipped when unconfigured.
func buildApp(ctx context.Context, cfg *config.Config, db *gorm.DB, gw gateway) (*app, error) {
	a := &app{}

	var lookupCache services.LookupCache
	employeeCache, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if employeeCache != nil {
		lookupCache = employeeCache
		a.closers = append(a.closers, employeeCache.Close)
	}

	a.hub = livefeed.NewHub(cfg.Chapa.Currency)
	notifiers := []services.TipNotifier{a.hub}

	producer, err := broker.NewProducer(cfg.Kafka)
	if err != nil {
		a.Close()
		return nil, err
	}
	if producer != nil {
		notifiers = append(notifiers, producer)
		a.closers = append(a.closers, producer.Close)
	}

	fees, err := services.NewFeePolicy(cfg.Chapa.SplitValue)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("fee policy: %w", err)
	}

	directory := services.NewEmployeeDirectory(db, lookupCache)
	a.ledger = services.NewTipLedger(db, directory, gw, fees,
		services.WithNotifiers(notifiers...),
		services.WithMetrics(services.NewLedgerMetrics()),
	)

	a.engine = router.SetupRouter(router.Deps{
		Config:      cfg,
		DB:          db,
		Ledger:      a.ledger,
		SubAccounts: services.NewSubAccountService(db, directory, gw),
		Auditor:     services.NewWebhookAuditor(db),
		Hub:         a.hub,
	})
	return a, nil
}

func newGateway(cfg config.ChapaConfig) (*services.ChapaService, error) {
	table, err := services.LoadErrorTable(cfg.ErrorTable)
	if err != nil {
		return nil, err
	}
	return services.NewChapaService(cfg, table), nil
}
