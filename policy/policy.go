// Package policy maps an investment amount to its daily payout and to the
// referral bonus it pays its referrer.
//
// Three bands: 500, 1000 and 2000. Amounts at or above 2000 earn
// proportionally (7.5% daily, 3% referral), which lands exactly on the
// advertised 150 / 60 at the 2000 boundary. Below 500 nothing is paid.
package policy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("policy: amount must not be negative")

// Policy is what settlement and investment approval depend on.
type Policy interface {
	DailyReturn(amount decimal.Decimal) (decimal.Decimal, error)
	ReferralBonus(amount decimal.Decimal) (decimal.Decimal, error)
}

// Tier is one band of the payout table, used for display.
type Tier struct {
	Min           decimal.Decimal `json:"min"`
	DailyReturn   decimal.Decimal `json:"daily_return"`
	ReferralBonus decimal.Decimal `json:"referral_bonus"`
	Proportional  bool            `json:"proportional"`
}

var (
	MinInvestment = decimal.NewFromInt(500)

	tierMid  = decimal.NewFromInt(1000)
	tierHigh = decimal.NewFromInt(2000)

	dailyRate = decimal.RequireFromString("0.075")
	bonusRate = decimal.RequireFromString("0.03")

	dailyLow   = decimal.NewFromInt(30)
	dailyMid   = decimal.NewFromInt(70)
	bonusLow   = decimal.NewFromInt(10)
	bonusMid   = decimal.NewFromInt(25)
	moneyScale = int32(2)
)

// Tiered is the default payout table.
type Tiered struct{}

// Default is the policy used when none is injected.
var Default Policy = Tiered{}

func (Tiered) DailyReturn(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	switch {
	case amount.GreaterThanOrEqual(tierHigh):
		return amount.Mul(dailyRate).Round(moneyScale), nil
	case amount.GreaterThanOrEqual(tierMid):
		return dailyMid, nil
	case amount.GreaterThanOrEqual(MinInvestment):
		return dailyLow, nil
	default:
		return decimal.Zero, nil
	}
}

func (Tiered) ReferralBonus(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	switch {
	case amount.GreaterThanOrEqual(tierHigh):
		return amount.Mul(bonusRate).Round(moneyScale), nil
	case amount.GreaterThanOrEqual(tierMid):
		return bonusMid, nil
	case amount.GreaterThanOrEqual(MinInvestment):
		return bonusLow, nil
	default:
		return decimal.Zero, nil
	}
}

// Tiers returns the payout table evaluated at each band's lower bound.
func Tiers() []Tier {
	p := Tiered{}
	var out []Tier
	for _, min := range []decimal.Decimal{MinInvestment, tierMid, tierHigh} {
		daily, _ := p.DailyReturn(min)
		bonus, _ := p.ReferralBonus(min)
		out = append(out, Tier{
			Min:           min,
			DailyReturn:   daily,
			ReferralBonus: bonus,
			Proportional:  min.Equal(tierHigh),
		})
	}
	return out
}
