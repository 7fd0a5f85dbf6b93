// Package domain contains the core domain types for the liquidity context.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/asset"
)

// RatioSpec describes a desired liquidity position in human units: how much
// of the base token to provide, the exchange ratio (quote units per one base
// unit) and a ceiling on quote spend.
type RatioSpec struct {
	BaseAmount decimal.Decimal
	QuoteRatio decimal.Decimal
	QuoteCap   decimal.Decimal
}

// Validate checks the spec invariants.
func (s RatioSpec) Validate() error {
	if !s.BaseAmount.IsPositive() {
		return apperror.New(apperror.CodeInvalidRatioSpec,
			apperror.WithContext("base amount must be positive"))
	}
	if !s.QuoteRatio.IsPositive() {
		return apperror.New(apperror.CodeInvalidRatioSpec,
			apperror.WithContext("quote ratio must be positive"))
	}
	if !s.QuoteCap.IsPositive() {
		return apperror.New(apperror.CodeInvalidRatioSpec,
			apperror.WithContext("quote cap must be positive"))
	}
	return nil
}

// Sizing is the result of sizing a liquidity operation: both sides expressed
// in smallest units, ready for submission.
type Sizing struct {
	Base   asset.Amount
	Quote  asset.Amount
	Capped bool
}

// SizeLiquidity derives consistent base and quote amounts from a ratio spec.
// The uncapped quote is baseAmount * quoteRatio. When that exceeds the cap,
// the quote is clamped to the cap and the base amount is recomputed downward
// from the clamped quote so the pair stays on-ratio. An off-ratio pair is
// never produced. Arithmetic happens in decimal space and converts to
// smallest units exactly once at the end.
func SizeLiquidity(spec RatioSpec, base, quote *asset.Asset) (Sizing, error) {
	if err := spec.Validate(); err != nil {
		return Sizing{}, err
	}

	baseDec := spec.BaseAmount
	quoteDec := baseDec.Mul(spec.QuoteRatio)
	capped := false

	if quoteDec.GreaterThan(spec.QuoteCap) {
		quoteDec = spec.QuoteCap
		baseDec = quoteDec.Div(spec.QuoteRatio).Truncate(int32(base.Decimals()))
		capped = true
	}

	baseAmt, err := asset.ParseDecimal(base, baseDec)
	if err != nil {
		return Sizing{}, apperror.Wrap(err, apperror.CodeInvalidRatioSpec,
			fmt.Sprintf("base amount %s does not fit %s", baseDec, base.Symbol()))
	}

	quoteAmt, err := asset.ParseDecimal(quote, quoteDec.Truncate(int32(quote.Decimals())))
	if err != nil {
		return Sizing{}, apperror.Wrap(err, apperror.CodeInvalidRatioSpec,
			fmt.Sprintf("quote amount %s does not fit %s", quoteDec, quote.Symbol()))
	}

	return Sizing{Base: baseAmt, Quote: quoteAmt, Capped: capped}, nil
}
