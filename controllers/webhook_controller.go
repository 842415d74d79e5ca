package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tipflow/tip-backend/middlewares"
	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
)

type ConfirmationApplier interface {
	ApplyPaymentConfirmation(ctx context.Context, conf services.PaymentConfirmation) (services.ApplyResult, error)
}

type DeliveryRecorder interface {
	Record(ctx context.Context, txRef string, payload []byte, signatureValid bool, outcome string, cause error)
}

// webhookPayload is the gateway's confirmation. amount is the gross the
// customer paid and charge the gateway's fee; both accept JSON strings or
// numbers.
type webhookPayload struct {
	TxRef  string           `json:"tx_ref"`
	Amount *decimal.Decimal `json:"amount"`
	Charge *decimal.Decimal `json:"charge"`
	Status string           `json:"status"`
}

type WebhookController struct {
	ledger  ConfirmationApplier
	auditor DeliveryRecorder
}

func NewWebhookController(ledger ConfirmationApplier, auditor DeliveryRecorder) *WebhookController {
	return &WebhookController{ledger: ledger, auditor: auditor}
}

// VerifyPayment handles POST /verify-payment. It holds no state and writes
// nothing itself besides the delivery audit.
func (wc *WebhookController) VerifyPayment(c *gin.Context) {
	body, err := rawBody(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "unreadable body")
		return
	}
	signed := c.GetBool(middlewares.CtxSignatureValid)
	ctx := c.Request.Context()

	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		wc.record(ctx, "", body, signed, models.WebhookOutcomeRejected, err)
		utils.RespondError(c, http.StatusUnprocessableEntity, "malformed payload")
		return
	}
	p.TxRef = strings.TrimSpace(p.TxRef)

	if err := p.validate(); err != nil {
		wc.record(ctx, p.TxRef, body, signed, models.WebhookOutcomeRejected, err)
		utils.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if p.Status != "" && !strings.EqualFold(p.Status, "success") {
		wc.record(ctx, p.TxRef, body, signed, models.WebhookOutcomeIgnored, nil)
		utils.RespondJSON(c, http.StatusOK, "Ignored", gin.H{"tx_ref": p.TxRef})
		return
	}

	res, err := wc.ledger.ApplyPaymentConfirmation(ctx, services.PaymentConfirmation{
		TxRef:      p.TxRef,
		Amount:     *p.Amount,
		GatewayFee: *p.Charge,
	})
	if err != nil {
		outcome := models.WebhookOutcomeFailed
		if errors.Is(err, services.ErrTransactionNotFound) || errors.Is(err, services.ErrValidation) ||
			errors.Is(err, services.ErrAmountMismatch) {
			outcome = models.WebhookOutcomeRejected
		}
		wc.record(ctx, p.TxRef, body, signed, outcome, err)
		respondLedgerError(c, err)
		return
	}

	if !res.Applied {
		wc.record(ctx, p.TxRef, body, signed, models.WebhookOutcomeDuplicate, nil)
		utils.RespondJSON(c, http.StatusOK, "Payment already applied", gin.H{"tx_ref": p.TxRef})
		return
	}

	wc.record(ctx, p.TxRef, body, signed, models.WebhookOutcomeApplied, nil)
	utils.RespondJSON(c, http.StatusOK, "Payment applied", gin.H{"tx_ref": p.TxRef})
}

func (p *webhookPayload) validate() error {
	switch {
	case p.TxRef == "":
		return errors.New("tx_ref is required")
	case p.Amount == nil:
		return errors.New("amount is required")
	case p.Charge == nil:
		return errors.New("charge is required")
	case !p.Amount.IsPositive():
		return errors.New("amount must be greater than 0")
	case p.Charge.IsNegative():
		return errors.New("charge must not be negative")
	case !p.Amount.Equal(p.Amount.Truncate(2)):
		return errors.New("amount can only have up to 2 decimal places")
	case !p.Charge.Equal(p.Charge.Truncate(2)):
		return errors.New("charge can only have up to 2 decimal places")
	}
	return nil
}

func (wc *WebhookController) record(ctx context.Context, txRef string, body []byte, signed bool, outcome string, cause error) {
	if wc.auditor != nil {
		wc.auditor.Record(ctx, txRef, body, signed, outcome, cause)
	}
}

func rawBody(c *gin.Context) ([]byte, error) {
	if v, ok := c.Get(middlewares.CtxRawBody); ok {
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}
	return c.GetRawData()
}
