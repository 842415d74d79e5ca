package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tipflow/tip-backend/middlewares"
	"github.com/tipflow/tip-backend/models"
	"github.com/tipflow/tip-backend/services"
	"github.com/tipflow/tip-backend/utils"
)

type PayoutRegistrar interface {
	Register(ctx context.Context, employeeID string, in services.BankAccountInput) (*models.SubAccount, error)
}

type BankAccountController struct {
	registrar PayoutRegistrar
}

func NewBankAccountController(registrar PayoutRegistrar) *BankAccountController {
	return &BankAccountController{registrar: registrar}
}

// RegisterBankAccount handles POST /employee/bank-account for the
// authenticated employee.
func (bc *BankAccountController) RegisterBankAccount(c *gin.Context) {
	var in services.BankAccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "account_name, account_number and bank_code are required")
		return
	}

	sub, err := bc.registrar.Register(c.Request.Context(), c.GetString(middlewares.CtxSubjectID), in)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Bank account registered", gin.H{
		"sub_account": sub.SubAccount,
	})
}
