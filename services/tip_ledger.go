package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/utils"
	"gorm.io/gorm"
)

// EmployeeRef is the part of an employee the ledger needs.
type EmployeeRef struct {
	ID                string `json:"id"`
	TipCode           string `json:"tip_code"`
	ServiceProviderID string `json:"service_provider_id"`
}

// EmployeeLookup resolves tip codes and payout accounts. Both methods
// return ErrNotFound when nothing matches.
type EmployeeLookup interface {
	FindByTipCode(ctx context.Context, tipCode string) (*EmployeeRef, error)
	FindSubAccount(ctx context.Context, employeeID string) (string, error)
}

// TipCheckout is returned to the customer after a successful initiation.
type TipCheckout struct {
	TipID       string `json:"tip_id"`
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

// PaymentConfirmation is a verified gateway notification: the gross amount
// the customer paid and the fee the gateway kept.
type PaymentConfirmation struct {
	TxRef      string
	Amount     decimal.Decimal
	GatewayFee decimal.Decimal
}

// ApplyResult describes what ApplyPaymentConfirmation did. Applied is false
// when the transaction had already been completed by an earlier delivery.
type ApplyResult struct {
	Applied bool
	TipID   string
	Payment *models.Payment
}

// TipLedger owns the Tip -> Transaction -> Payment state machine.
type TipLedger struct {
	db        *gorm.DB
	employees EmployeeLookup
	gateway   CheckoutGateway
	fees      *FeePolicy
	notifiers notifierSet
	metrics   *LedgerMetrics
	newTxRef  func() string
	now       func() time.Time
}

type LedgerOption func(*TipLedger)

func WithNotifiers(n ...TipNotifier) LedgerOption {
	return func(l *TipLedger) { l.notifiers = append(l.notifiers, n...) }
}

func WithMetrics(m *LedgerMetrics) LedgerOption {
	return func(l *TipLedger) { l.metrics = m }
}

func WithTxRefGenerator(gen func() string) LedgerOption {
	return func(l *TipLedger) { l.newTxRef = gen }
}

func NewTipLedger(db *gorm.DB, employees EmployeeLookup, gateway CheckoutGateway, fees *FeePolicy, opts ...LedgerOption) *TipLedger {
	l := &TipLedger{
		db:        db,
		employees: employees,
		gateway:   gateway,
		fees:      fees,
		newTxRef:  NewTxRef,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewTxRef returns a fresh correlation reference: a random (v4) UUID,
// 122 bits from crypto/rand.
func NewTxRef() string {
	return "tip-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateTipAmount accepts positive amounts with at most two decimals.
func ValidateTipAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: amount can only have up to 2 decimal places", ErrValidation)
	}
	return nil
}

// InitiateTip starts a gateway checkout for the employee behind tipCode and
// records a pending Tip and Transaction. The gateway is called before any
// database transaction is opened; if it fails nothing is written.
func (l *TipLedger) InitiateTip(ctx context.Context, tipCode string, amount decimal.Decimal) (*TipCheckout, error) {
	if err := ValidateTipAmount(amount); err != nil {
		return nil, err
	}

	employee, err := l.employees.FindByTipCode(ctx, tipCode)
	if err != nil {
		return nil, fmt.Errorf("lookup tip code %q: %w", tipCode, err)
	}

	subAccount, err := l.employees.FindSubAccount(ctx, employee.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("employee %s: %w", employee.ID, ErrPayoutNotConfigured)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup payout account: %w", err)
	}

	txRef := l.newTxRef()
	log := utils.InfoLogger.WithFields(logrus.Fields{
		"tx_ref":      txRef,
		"employee_id": employee.ID,
		"amount":      amount.StringFixed(2),
	})

	checkout, err := l.gateway.InitiateCheckout(ctx, CheckoutRequest{
		Amount:       amount,
		TxRef:        txRef,
		SubAccountID: subAccount,
	})
	if err != nil {
		l.metrics.gatewayFailure()
		return nil, fmt.Errorf("initiate checkout: %w", err)
	}

	tip := models.Tip{
		EmployeeID:        employee.ID,
		ServiceProviderID: employee.ServiceProviderID,
		Amount:            amount,
		Status:            models.StatusPending,
	}
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tip).Error; err != nil {
			return fmt.Errorf("create tip: %w", err)
		}
		txn := models.Transaction{
			TxRef:  txRef,
			TipID:  tip.ID,
			Status: models.StatusPending,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"tx_ref": txRef}).Errorf("record pending tip: %v", err)
		return nil, err
	}

	l.metrics.tipInitiated()
	log.WithField("tip_id", tip.ID).Info("tip initiated")

	return &TipCheckout{
		TipID:       tip.ID,
		CheckoutURL: checkout.CheckoutURL,
		TxRef:       txRef,
	}, nil
}

// ApplyPaymentConfirmation completes the transaction named by conf.TxRef,
// completes its tip and records the fee split, all in one database
// transaction. Confirmations for an already completed transaction are
// no-ops that report Applied=false.
//
// The transaction row is claimed with a conditional update on
// status='pending'; only the caller whose update affects a row goes on to
// write the payment, so concurrent deliveries produce one payment.
func (l *TipLedger) ApplyPaymentConfirmation(ctx context.Context, conf PaymentConfirmation) (ApplyResult, error) {
	if strings.TrimSpace(conf.TxRef) == "" {
		return ApplyResult{}, fmt.Errorf("%w: tx_ref is required", ErrValidation)
	}

	log := utils.InfoLogger.WithField("tx_ref", conf.TxRef)

	var (
		result ApplyResult
		evt    TipCompleted
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Where("tx_ref = ?", conf.TxRef).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("load transaction: %w", err)
		}
		result.TipID = txn.TipID

		if txn.Status == models.StatusCompleted {
			return nil
		}

		var tip models.Tip
		if err := tx.Where("id = ?", txn.TipID).First(&tip).Error; err != nil {
			return fmt.Errorf("load tip %s: %w", txn.TipID, err)
		}
		if !tip.Amount.Equal(conf.Amount) {
			return fmt.Errorf("%w: tip %s is %s, confirmation says %s",
				ErrAmountMismatch, tip.ID, tip.Amount.StringFixed(2), conf.Amount.StringFixed(2))
		}

		split, err := l.fees.Split(conf.Amount, conf.GatewayFee)
		if err != nil {
			return err
		}

		claim := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txn.ID, models.StatusPending).
			Update("status", models.StatusCompleted)
		if claim.Error != nil {
			return fmt.Errorf("complete transaction: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			// another delivery completed it after our read
			return nil
		}

		done := tx.Model(&models.Tip{}).
			Where("id = ? AND status = ?", tip.ID, models.StatusPending).
			Update("status", models.StatusCompleted)
		if done.Error != nil {
			return fmt.Errorf("complete tip: %w", done.Error)
		}
		if done.RowsAffected == 0 {
			return fmt.Errorf("tip %s is not pending", tip.ID)
		}

		payment := models.Payment{
			TipID:      tip.ID,
			EmployeeID: tip.EmployeeID,
			Amount:     split.NetPayout,
			ServiceFee: split.ServiceFee,
			ChapaFee:   split.GatewayFee,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		result.Applied = true
		result.Payment = &payment
		evt = TipCompleted{
			TipID:             tip.ID,
			TxRef:             conf.TxRef,
			EmployeeID:        tip.EmployeeID,
			ServiceProviderID: tip.ServiceProviderID,
			Gross:             split.Gross,
			GatewayFee:        split.GatewayFee,
			ServiceFee:        split.ServiceFee,
			NetPayout:         split.NetPayout,
			CompletedAt:       l.now(),
		}
		return nil
	})

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// the payment unique index caught a concurrent writer
		l.metrics.duplicateConfirmation()
		log.Info("payment already recorded by a concurrent delivery")
		return ApplyResult{TipID: result.TipID}, nil
	case err != nil:
		l.metrics.rejectedConfirmation()
		if errors.Is(err, ErrTransactionNotFound) || errors.Is(err, ErrValidation) {
			log.Infof("payment confirmation rejected: %v", err)
		} else {
			utils.ErrorLogger.WithField("tx_ref", conf.TxRef).Errorf("apply payment confirmation: %v", err)
		}
		return ApplyResult{}, err
	}

	if !result.Applied {
		l.metrics.duplicateConfirmation()
		log.Info("payment confirmation already applied")
		return result, nil
	}

	l.metrics.confirmationApplied()
	log.WithFields(logrus.Fields{
		"tip_id":      result.TipID,
		"net_payout":  result.Payment.Amount.StringFixed(2),
		"service_fee": result.Payment.ServiceFee.StringFixed(2),
		"chapa_fee":   result.Payment.ChapaFee.StringFixed(2),
	}).Info("payment confirmation applied")

	l.notifiers.notify(ctx, evt)
	return result, nil
}

// Metrics returns the ledger counters, or nil if none were configured.
func (l *TipLedger) Metrics() *LedgerMetrics {
	return l.metrics
}
