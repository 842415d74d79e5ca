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

// BankAccountInput is what an employee submits to receive payouts.
type BankAccountInput struct {
	AccountName   string `json:"account_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	BankCode      string `json:"bank_code" binding:"required"`
	BusinessName  string `json:"business_name"`
}

// SubAccountService registers employees with the gateway's split-payment
// scheme. Only the returned sub-account id is stored.
type SubAccountService struct {
	db        *gorm.DB
	directory *EmployeeDirectory
	gateway   SubAccountGateway
}

func NewSubAccountService(db *gorm.DB, directory *EmployeeDirectory, gateway SubAccountGateway) *SubAccountService {
	return &SubAccountService{db: db, directory: directory, gateway: gateway}
}

func (s *SubAccountService) Register(ctx context.Context, employeeID string, in BankAccountInput) (*models.SubAccount, error) {
	if strings.TrimSpace(in.AccountName) == "" || strings.TrimSpace(in.AccountNumber) == "" || strings.TrimSpace(in.BankCode) == "" {
		return nil, fmt.Errorf("%w: account_name, account_number and bank_code are required", ErrValidation)
	}

	employee, err := s.directory.FindEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.directory.FindSubAccount(ctx, employee.ID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	business := in.BusinessName
	if business == "" {
		business = employee.ServiceProvider.Name
	}

	subID, err := s.gateway.CreateSubAccount(ctx, SubAccountRequest{
		BusinessName:  business,
		AccountName:   in.AccountName,
		BankCode:      in.BankCode,
		AccountNumber: in.AccountNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("create sub-account: %w", err)
	}

	sub := models.SubAccount{EmployeeID: employee.ID, SubAccount: subID}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("save sub-account: %w", err)
	}

	utils.InfoLogger.WithField("employee_id", employee.ID).Info("payout account registered")
	return &sub, nil
}
