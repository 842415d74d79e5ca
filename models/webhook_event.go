package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	WebhookOutcomeApplied   = "applied"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeRejected  = "rejected"
	WebhookOutcomeFailed    = "failed"
)

// WebhookEvent is an append-only audit record of one gateway delivery.
type WebhookEvent struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	TxRef          string         `gorm:"type:varchar(100);index" json:"tx_ref"`
	Payload        datatypes.JSON `json:"payload"`
	SignatureValid bool           `gorm:"not null;default:false" json:"signature_valid"`
	Outcome        string         `gorm:"type:varchar(20);not null;index" json:"outcome"`
	Error          string         `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}
