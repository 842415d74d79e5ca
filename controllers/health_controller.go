package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/livefeed"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

type HealthController struct {
	db      *gorm.DB
	metrics *services.LedgerMetrics
	hub     *livefeed.Hub
}

func NewHealthController(db *gorm.DB, metrics *services.LedgerMetrics, hub *livefeed.Hub) *HealthController {
	return &HealthController{db: db, metrics: metrics, hub: hub}
}

func (hc *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (hc *HealthController) Metrics(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := hc.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "unavailable"
	}

	data := gin.H{"database": dbStatus}
	if hc.metrics != nil {
		data["ledger"] = hc.metrics.Snapshot()
	}
	if hc.hub != nil {
		data["live_feed_clients"] = hc.hub.Clients()
	}

	code := http.StatusOK
	if dbStatus != "ok" {
		code = http.StatusServiceUnavailable
	}
	utils.RespondJSON(c, code, "Service metrics", data)
}
