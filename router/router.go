package router

import (
	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/controllers"
	"github.com/tipflow/tip-backend/livefeed"
	"github.com/tipflow/tip-backend/middlewares"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs, built once in main.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	Ledger      *services.TipLedger
	SubAccounts *services.SubAccountService
	Auditor     *services.WebhookAuditor
	Hub         *livefeed.Hub
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Config.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())

	healthCtrl := controllers.NewHealthController(d.DB, d.Ledger.Metrics(), d.Hub)
	tipCtrl := controllers.NewTipController(d.Ledger)
	webhookCtrl := controllers.NewWebhookController(d.Ledger, d.Auditor)
	bankCtrl := controllers.NewBankAccountController(d.SubAccounts)
	feedCtrl := controllers.NewFeedController(d.Hub, d.Config.CORSOrigins)

	r.GET("/ping", healthCtrl.Ping)
	r.GET("/health/metrics", healthCtrl.Metrics)

	limiter := middlewares.NewRateLimiter(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst)
	r.GET("/tip/:tip_code", limiter.RateLimit(), tipCtrl.InitiateTip)

	r.POST("/verify-payment", middlewares.WebhookSignature(d.Config.Chapa.WebhookSecret), webhookCtrl.VerifyPayment)

	employee := r.Group("/employee")
	employee.Use(middlewares.AuthMiddleware(d.Config.JWTSecret), middlewares.RequireRole(utils.RoleEmployee))
	{
		employee.POST("/bank-account", bankCtrl.RegisterBankAccount)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware(d.Config.JWTSecret), middlewares.RequireRole(utils.RoleProvider))
	{
		ws.GET("/tips", feedCtrl.Stream)
	}

	return r
}
