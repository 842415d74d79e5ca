package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceProvider, Employee and SubAccount are owned by the account
// service. The ledger only reads them.
type ServiceProvider struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	IsVerified  bool      `gorm:"not null;default:false" json:"is_verified"`
	IsSuspended bool      `gorm:"not null;default:false" json:"is_suspended"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *ServiceProvider) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

type Employee struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TipCode           string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"tip_code"`
	ServiceProviderID string          `gorm:"type:varchar(36);not null;index" json:"service_provider_id"`
	ServiceProvider   ServiceProvider `gorm:"foreignKey:ServiceProviderID" json:"-"`
	IsActive          bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}

// SubAccount stores only the gateway's sub-account id; bank details are
// never persisted.
type SubAccount struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	EmployeeID string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"employee_id"`
	SubAccount string    `gorm:"type:varchar(100);not null" json:"sub_account"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *SubAccount) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}
