package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Tip is one customer gratuity directed at one employee.
// Status only ever moves pending -> completed.
type Tip struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	EmployeeID        string          `gorm:"type:varchar(36);not null;index" json:"employee_id"`
	ServiceProviderID string          `gorm:"type:varchar(36);not null;index" json:"service_provider_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status            string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (t *Tip) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}
