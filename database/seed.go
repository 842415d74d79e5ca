package database

import (
	"errors"
	"fmt"

	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

// SeedOptions describes the demo tenant created by Seed.
type SeedOptions struct {
	ProviderName string
	TipCode      string
	SubAccount   string
}

// SeedResult returns the ids Seed created or found.
type SeedResult struct {
	ServiceProviderID string
	EmployeeID        string
}

// Seed creates one verified provider with one active employee and, when
// opts.SubAccount is set, a payout account for it. Running it twice is a
// no-op.
func Seed(db *gorm.DB, opts SeedOptions) (*SeedResult, error) {
	if opts.TipCode == "" {
		return nil, errors.New("tip code is required")
	}
	if opts.ProviderName == "" {
		opts.ProviderName = "Demo Provider"
	}

	var result SeedResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		err := tx.Where("tip_code = ?", opts.TipCode).First(&employee).Error
		switch {
		case err == nil:
			utils.InfoLogger.Infof("Employee with tip code %s already seeded", opts.TipCode)
		case errors.Is(err, gorm.ErrRecordNotFound):
			provider := models.ServiceProvider{Name: opts.ProviderName, IsVerified: true}
			if err := tx.Create(&provider).Error; err != nil {
				return fmt.Errorf("create provider: %w", err)
			}
			employee = models.Employee{
				TipCode:           opts.TipCode,
				ServiceProviderID: provider.ID,
				IsActive:          true,
			}
			if err := tx.Create(&employee).Error; err != nil {
				return fmt.Errorf("create employee: %w", err)
			}
		default:
			return err
		}

		result.ServiceProviderID = employee.ServiceProviderID
		result.EmployeeID = employee.ID

		if opts.SubAccount == "" {
			return nil
		}
		sub := models.SubAccount{EmployeeID: employee.ID, SubAccount: opts.SubAccount}
		return tx.Where(models.SubAccount{EmployeeID: employee.ID}).FirstOrCreate(&sub).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Seeded employee %s (tip code %s)", result.EmployeeID, opts.TipCode)
	return &result, nil
}
