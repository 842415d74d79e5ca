package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

// LookupCache caches tip-code resolutions. Get reports false on a miss.
type LookupCache interface {
	GetEmployee(ctx context.Context, tipCode string) (*EmployeeRef, bool, error)
	SetEmployee(ctx context.Context, ref *EmployeeRef) error
}

// EmployeeDirectory resolves tip codes against the account tables. Only
// active employees of non-suspended providers can receive tips.
type EmployeeDirectory struct {
	db    *gorm.DB
	cache LookupCache
}

func NewEmployeeDirectory(db *gorm.DB, cache LookupCache) *EmployeeDirectory {
	return &EmployeeDirectory{db: db, cache: cache}
}

func (d *EmployeeDirectory) FindByTipCode(ctx context.Context, tipCode string) (*EmployeeRef, error) {
	tipCode = strings.TrimSpace(tipCode)
	if tipCode == "" {
		return nil, ErrNotFound
	}

	if d.cache != nil {
		ref, ok, err := d.cache.GetEmployee(ctx, tipCode)
		if err != nil {
			utils.ErrorLogger.Warnf("tip code cache read failed: %v", err)
		} else if ok {
			return ref, nil
		}
	}

	var employee models.Employee
	err := d.db.WithContext(ctx).
		Joins("JOIN service_providers ON service_providers.id = employees.service_provider_id").
		Where("employees.tip_code = ? AND employees.is_active = ? AND service_providers.is_suspended = ?", tipCode, true, false).
		First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}

	ref := &EmployeeRef{
		ID:                employee.ID,
		TipCode:           employee.TipCode,
		ServiceProviderID: employee.ServiceProviderID,
	}
	if d.cache != nil {
		if err := d.cache.SetEmployee(ctx, ref); err != nil {
			utils.ErrorLogger.Warnf("tip code cache write failed: %v", err)
		}
	}
	return ref, nil
}

// FindSubAccount always reads the database so a newly registered payout
// account is usable immediately.
func (d *EmployeeDirectory) FindSubAccount(ctx context.Context, employeeID string) (string, error) {
	var sub models.SubAccount
	err := d.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find sub-account: %w", err)
	}
	if sub.SubAccount == "" {
		return "", ErrNotFound
	}
	return sub.SubAccount, nil
}

// FindEmployee loads an employee by id regardless of status.
func (d *EmployeeDirectory) FindEmployee(ctx context.Context, employeeID string) (*models.Employee, error) {
	var employee models.Employee
	err := d.db.WithContext(ctx).Preload("ServiceProvider").Where("id = ?", employeeID).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}
