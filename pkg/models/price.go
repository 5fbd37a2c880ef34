package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HumanAmount renders the price in whole currency units for display,
// e.g. 1500000 at 6 decimals -> "1.5".
func (p SalePrice) HumanAmount() decimal.Decimal {
	return decimal.NewFromBigInt(p.Amount.BigInt(), -int32(p.Decimals))
}

// PriceFromHuman converts a whole-unit quantity into a base-unit SalePrice
// for the given token contract. Quantities finer than the contract's
// decimals are rejected rather than silently truncated.
func PriceFromHuman(contractID AccountID, decimals uint32, human decimal.Decimal) (SalePrice, error) {
	scaled := human.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return SalePrice{}, fmt.Errorf("amount %s has more than %d decimal places", human, decimals)
	}
	if scaled.Sign() < 0 {
		return SalePrice{}, fmt.Errorf("amount %s is negative", human)
	}
	amount, err := ParseAmount(scaled.String())
	if err != nil {
		return SalePrice{}, err
	}
	return SalePrice{
		IsNative:   false,
		ContractID: contractID,
		Decimals:   decimals,
		Amount:     amount,
	}, nil
}

// NativePrice builds a native-denominated price from base units.
func NativePrice(amount Amount) SalePrice {
	return SalePrice{IsNative: true, Amount: amount}
}
