package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
)

const (
	msgInternal           = "Internal server error"
	msgGatewayUnavailable = "Payment service is temporarily unavailable, please try again"
)

// respondLedgerError is the single place ledger and gateway errors become
// HTTP statuses. Storage errors and platform-side gateway failures are
// logged and answered with an opaque 500.
func respondLedgerError(c *gin.Context, err error) {
	var gwErr *services.GatewayError
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrAmountMismatch):
		utils.RespondError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrTransactionNotFound):
		utils.RespondError(c, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, "Employee not found")
	case errors.Is(err, services.ErrPayoutNotConfigured):
		utils.RespondError(c, http.StatusConflict, "Employee has not set up a payout account")
	case errors.Is(err, services.ErrAlreadyRegistered):
		utils.RespondError(c, http.StatusConflict, "Payout account already registered")
	case errors.As(err, &gwErr):
		if gwErr.UserFacing() {
			utils.RespondError(c, http.StatusBadRequest, gwErr.Message)
			return
		}
		utils.ErrorLogger.WithFields(logrus.Fields{
			"kind":   gwErr.Kind,
			"status": gwErr.StatusCode,
			"path":   c.FullPath(),
		}).Errorf("gateway failure: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, msgGatewayUnavailable)
	default:
		utils.ErrorLogger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, msgInternal)
	}
}
