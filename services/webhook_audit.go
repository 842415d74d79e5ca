package services

import (
	"context"
	"encoding/json"

	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WebhookAuditor appends one row per gateway delivery. Audit failures are
// logged and never change the webhook response.
type WebhookAuditor struct {
	db *gorm.DB
}

func NewWebhookAuditor(db *gorm.DB) *WebhookAuditor {
	return &WebhookAuditor{db: db}
}

func (a *WebhookAuditor) Record(ctx context.Context, txRef string, payload []byte, signatureValid bool, outcome string, cause error) {
	if a == nil {
		return
	}
	if !json.Valid(payload) {
		raw, _ := json.Marshal(string(payload))
		payload = raw
	}
	evt := models.WebhookEvent{
		TxRef:          txRef,
		Payload:        datatypes.JSON(payload),
		SignatureValid: signatureValid,
		Outcome:        outcome,
	}
	if cause != nil {
		evt.Error = cause.Error()
	}
	if err := a.db.WithContext(ctx).Create(&evt).Error; err != nil {
		utils.ErrorLogger.WithField("tx_ref", txRef).Errorf("record webhook event: %v", err)
	}
}
