package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is the reconciled split of a completed tip:
// tip amount == Amount + ServiceFee + ChapaFee.
type Payment struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TipID      string          `gorm:"type:varchar(36);not null;uniqueIndex" json:"tip_id"`
	Tip        Tip             `gorm:"foreignKey:TipID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	EmployeeID string          `gorm:"type:varchar(36);not null;index" json:"employee_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	ServiceFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"service_fee"`
	ChapaFee   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"chapa_fee"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}
