package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeSplit is the three-way split of a gross tip amount.
type FeeSplit struct {
	Gross      decimal.Decimal `json:"gross"`
	GatewayFee decimal.Decimal `json:"gateway_fee"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	NetPayout  decimal.Decimal `json:"net_payout"`
}

// FeePolicy computes the platform cut. SplitRate is a fraction in [0,1).
type FeePolicy struct {
	SplitRate decimal.Decimal
	// Places is the number of fractional digits of the smallest currency
	// unit. Inputs finer than it are rejected, the service fee is rounded to
	// it and the payout absorbs the remainder, so the parts add up to the gross.
	Places int32
}

func NewFeePolicy(splitRate decimal.Decimal) (*FeePolicy, error) {
	if splitRate.IsNegative() || splitRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: split rate %s outside [0,1)", ErrValidation, splitRate)
	}
	return &FeePolicy{SplitRate: splitRate, Places: 2}, nil
}

// Split returns service_fee = gross * rate and
// net_payout = gross - gateway_fee - service_fee.
// When fees exceed the gross the split is still returned, with a negative
// payout, together with ErrNegativePayout.
func (p *FeePolicy) Split(gross, gatewayFee decimal.Decimal) (FeeSplit, error) {
	if !gross.IsPositive() {
		return FeeSplit{}, fmt.Errorf("%w: gross amount must be positive", ErrValidation)
	}
	if gatewayFee.IsNegative() {
		return FeeSplit{}, fmt.Errorf("%w: gateway fee must not be negative", ErrValidation)
	}
	if !p.inUnits(gross) || !p.inUnits(gatewayFee) {
		return FeeSplit{}, fmt.Errorf("%w: amounts are limited to %d decimal places (gross %s, gateway fee %s)",
			ErrValidation, p.Places, gross, gatewayFee)
	}

	serviceFee := gross.Mul(p.SplitRate).Round(p.Places)
	split := FeeSplit{
		Gross:      gross,
		GatewayFee: gatewayFee,
		ServiceFee: serviceFee,
		NetPayout:  gross.Sub(gatewayFee).Sub(serviceFee),
	}

	if split.NetPayout.IsNegative() {
		return split, fmt.Errorf("%w: gross %s, gateway fee %s, service fee %s",
			ErrNegativePayout, gross, gatewayFee, serviceFee)
	}
	return split, nil
}

// inUnits reports whether d is a whole number of the smallest currency unit.
func (p *FeePolicy) inUnits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(p.Places))
}
