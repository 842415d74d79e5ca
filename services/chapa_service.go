package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/utils"
)

// CheckoutRequest starts a hosted checkout whose proceeds go to SubAccountID.
type CheckoutRequest struct {
	Amount       decimal.Decimal
	TxRef        string
	SubAccountID string
}

type CheckoutResponse struct {
	CheckoutURL string
}

// SubAccountRequest registers an employee's bank account at the gateway.
type SubAccountRequest struct {
	BusinessName  string
	AccountName   string
	BankCode      string
	AccountNumber string
}

// CheckoutGateway is what the ledger needs from the payment provider.
type CheckoutGateway interface {
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
}

// SubAccountGateway is what payout registration needs from the provider.
type SubAccountGateway interface {
	CreateSubAccount(ctx context.Context, req SubAccountRequest) (string, error)
}

// ChapaService talks to the Chapa API. Every error it returns is a
// *GatewayError.
type ChapaService struct {
	config     config.ChapaConfig
	errors     *ErrorTable
	httpClient *http.Client
}

func NewChapaService(cfg config.ChapaConfig, table *ErrorTable) *ChapaService {
	if table == nil {
		table = DefaultErrorTable()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChapaService{
		config: cfg,
		errors: table,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ValidateConfig checks the settings needed to call the API.
func (cs *ChapaService) ValidateConfig() error {
	if cs.config.SecretKey == "" {
		return errors.New("CHAPA_SECRET_KEY is not set")
	}
	if cs.config.BaseURL == "" {
		return errors.New("CHAPA_BASE_URL is not set")
	}
	return nil
}

type chapaEnvelope struct {
	Message json.RawMessage `json:"message"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// InitiateCheckout creates a hosted checkout page for a tip.
func (cs *ChapaService) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	payload := map[string]interface{}{
		"amount":   req.Amount.StringFixed(2),
		"currency": cs.config.Currency,
		"tx_ref":   req.TxRef,
		"subaccounts": map[string]interface{}{
			"id": req.SubAccountID,
		},
	}
	if cs.config.CallbackURL != "" {
		payload["callback_url"] = cs.config.CallbackURL
	}
	if cs.config.ReturnURL != "" {
		payload["return_url"] = cs.config.ReturnURL
	}

	env, err := cs.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return nil, err
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.CheckoutURL == "" {
		return nil, &GatewayError{
			Kind:       ServerAnomaly,
			Audience:   AudiencePlatform,
			Message:    "checkout_url missing from response",
			StatusCode: http.StatusOK,
			Err:        err,
		}
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tx_ref": req.TxRef,
		"amount": req.Amount.StringFixed(2),
	}).Info("chapa checkout initialized")

	return &CheckoutResponse{CheckoutURL: data.CheckoutURL}, nil
}

// CreateSubAccount registers a payout destination and returns its id.
func (cs *ChapaService) CreateSubAccount(ctx context.Context, req SubAccountRequest) (string, error) {
	payload := map[string]interface{}{
		"business_name":  req.BusinessName,
		"account_name":   req.AccountName,
		"bank_code":      req.BankCode,
		"account_number": req.AccountNumber,
		"split_value":    cs.config.SplitValue.InexactFloat64(),
		"split_type":     cs.config.SplitType,
	}

	env, err := cs.post(ctx, "/subaccount", payload)
	if err != nil {
		return "", err
	}

	var data struct {
		SubAccountID string `json:"subaccount_id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.SubAccountID == "" {
		return "", &GatewayError{
			Kind:       ServerAnomaly,
			Audience:   AudiencePlatform,
			Message:    "subaccount_id missing from response",
			StatusCode: http.StatusOK,
			Err:        err,
		}
	}
	return data.SubAccountID, nil
}

func (cs *ChapaService) post(ctx context.Context, path string, payload interface{}) (*chapaEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &GatewayError{Kind: ServerAnomaly, Audience: AudiencePlatform, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cs.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Kind: ConnectionFailure, Audience: AudiencePlatform, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cs.config.SecretKey)

	resp, err := cs.httpClient.Do(req)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"path": path}).Errorf("chapa request failed: %v", err)
		return nil, &GatewayError{Kind: ConnectionFailure, Audience: AudiencePlatform, Message: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{Kind: ConnectionFailure, Audience: AudiencePlatform, Message: "read response", StatusCode: resp.StatusCode, Err: err}
	}

	var env chapaEnvelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := cs.errors.Classify(resp.StatusCode, messageText(env.Message, raw))
		fields := logrus.Fields{"path": path, "status": resp.StatusCode, "kind": gwErr.Kind, "audience": gwErr.Audience}
		if gwErr.UserFacing() {
			utils.InfoLogger.WithFields(fields).Infof("chapa rejected request: %s", gwErr.Message)
		} else {
			utils.ErrorLogger.WithFields(fields).Errorf("chapa error: %s", string(raw))
		}
		return nil, gwErr
	}

	if decodeErr != nil {
		return nil, &GatewayError{Kind: ServerAnomaly, Audience: AudiencePlatform, Message: "undecodable response", StatusCode: resp.StatusCode, Err: decodeErr}
	}
	return &env, nil
}

// messageText extracts Chapa's message, which is either a string or an
// object of field errors.
func messageText(msg json.RawMessage, raw []byte) string {
	if len(msg) == 0 {
		return strings.TrimSpace(string(raw))
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, msg); err != nil {
		return string(msg)
	}
	return buf.String()
}
