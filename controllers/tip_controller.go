package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
)

type TipInitiator interface {
	InitiateTip(ctx context.Context, tipCode string, amount decimal.Decimal) (*services.TipCheckout, error)
}

type TipController struct {
	ledger TipInitiator
}

func NewTipController(ledger TipInitiator) *TipController {
	return &TipController{ledger: ledger}
}

// InitiateTip handles GET /tip/:tip_code?amount=
func (tc *TipController) InitiateTip(c *gin.Context) {
	tipCode := strings.TrimSpace(c.Param("tip_code"))
	raw := strings.TrimSpace(c.Query("amount"))
	if raw == "" {
		utils.RespondError(c, http.StatusUnprocessableEntity, "amount is required")
		return
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		utils.RespondError(c, http.StatusUnprocessableEntity, "amount must be a number")
		return
	}

	checkout, err := tc.ledger.InitiateTip(c.Request.Context(), tipCode, amount)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Checkout created", gin.H{
		"checkout_url": checkout.CheckoutURL,
		"tx_ref":       checkout.TxRef,
	})
}
