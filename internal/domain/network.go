package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CardNetwork is the closed set of card networks the engine knows about.
// Anything else parses to NetworkOther and gets the default multipliers.
type CardNetwork string

const (
	NetworkVisa       CardNetwork = "VISA"
	NetworkMastercard CardNetwork = "MASTERCARD"
	NetworkAmex       CardNetwork = "AMEX"
	NetworkOther      CardNetwork = "OTHER"
)

// ParseCardNetwork normalizes a card type string to a CardNetwork.
func ParseCardNetwork(s string) CardNetwork {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VISA":
		return NetworkVisa
	case "MASTERCARD":
		return NetworkMastercard
	case "AMEX", "AMERICANEXPRESS":
		return NetworkAmex
	default:
		return NetworkOther
	}
}

var maxLimitMultipliers = map[CardNetwork]decimal.Decimal{
	NetworkVisa:       decimal.NewFromFloat(0.30),
	NetworkMastercard: decimal.NewFromFloat(0.50),
	NetworkAmex:       decimal.NewFromFloat(0.70),
	NetworkOther:      decimal.NewFromFloat(0.40),
}

// Lower table, used only when decreasing an existing limit.
var minLimitMultipliers = map[CardNetwork]decimal.Decimal{
	NetworkVisa:       decimal.NewFromFloat(0.10),
	NetworkMastercard: decimal.NewFromFloat(0.20),
	NetworkAmex:       decimal.NewFromFloat(0.40),
	NetworkOther:      decimal.NewFromFloat(0.20),
}

// MaxLimitMultiplier returns the income multiplier that caps a requested limit.
func (n CardNetwork) MaxLimitMultiplier() decimal.Decimal {
	if m, ok := maxLimitMultipliers[n]; ok {
		return m
	}
	return maxLimitMultipliers[NetworkOther]
}

// MinLimitMultiplier returns the income multiplier for the limit-decrease floor.
func (n CardNetwork) MinLimitMultiplier() decimal.Decimal {
	if m, ok := minLimitMultipliers[n]; ok {
		return m
	}
	return minLimitMultipliers[NetworkOther]
}
