package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tipflow/tip-backend/utils"
)

// TipCompleted is emitted once per tip, after its payment is committed.
type TipCompleted struct {
	TipID             string          `json:"tip_id"`
	TxRef             string          `json:"tx_ref"`
	EmployeeID        string          `json:"employee_id"`
	ServiceProviderID string          `json:"service_provider_id"`
	Gross             decimal.Decimal `json:"gross"`
	GatewayFee        decimal.Decimal `json:"gateway_fee"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	NetPayout         decimal.Decimal `json:"net_payout"`
	CompletedAt       time.Time       `json:"completed_at"`
}

// TipNotifier receives completed tips. Implementations must not block for
// long; failures are logged by the caller and otherwise ignored.
type TipNotifier interface {
	NotifyTipCompleted(ctx context.Context, evt TipCompleted) error
}

type notifierSet []TipNotifier

func (ns notifierSet) notify(ctx context.Context, evt TipCompleted) {
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.NotifyTipCompleted(ctx, evt); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"tip_id": evt.TipID,
				"tx_ref": evt.TxRef,
			}).Errorf("tip notification failed: %v", err)
		}
	}
}
