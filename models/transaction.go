package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction is one checkout attempt at the gateway. TxRef is the
// correlation key the gateway echoes back in its webhook.
type Transaction struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TxRef     string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"tx_ref"`
	TipID     string    `gorm:"type:varchar(36);not null;index" json:"tip_id"`
	Tip       Tip       `gorm:"foreignKey:TipID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}
