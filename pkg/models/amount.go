package models

import (
	"encoding/json"
	"fmt"
	"math/big"
)

const basisPointDenominator = 10_000

// Amount is a non-negative integer amount in the smallest denomination of
// its currency. Amounts can exceed 64 bits (native units are 10^24 per whole
// coin), so the value is backed by a big.Int and serializes as a decimal
// string, never as a JSON number.
//
// Amount values are immutable: every operation returns a fresh value.
type Amount struct {
	n big.Int
}

func NewAmount(v uint64) Amount {
	var a Amount
	a.n.SetUint64(v)
	return a
}

// ParseAmount parses a base-10 amount string.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if _, ok := a.n.SetString(s, 10); !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	if a.n.Sign() < 0 {
		return Amount{}, fmt.Errorf("negative amount %q", s)
	}
	return a, nil
}

// Pow10 returns 10^exp, used for whole-coin and decimal scaling.
func Pow10(exp uint32) Amount {
	var a Amount
	a.n.Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
	return a
}

func (a Amount) Cmp(b Amount) int    { return a.n.Cmp(&b.n) }
func (a Amount) IsZero() bool        { return a.n.Sign() == 0 }
func (a Amount) String() string      { return a.n.String() }
func (a Amount) Equal(b Amount) bool { return a.Cmp(b) == 0 }

func (a Amount) Add(b Amount) Amount {
	var r Amount
	r.n.Add(&a.n, &b.n)
	return r
}

// Sub is checked subtraction; ok is false when b exceeds a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.n.Cmp(&b.n) < 0 {
		return Amount{}, false
	}
	var r Amount
	r.n.Sub(&a.n, &b.n)
	return r, true
}

func (a Amount) MulUint64(v uint64) Amount {
	var r Amount
	r.n.Mul(&a.n, new(big.Int).SetUint64(v))
	return r
}

// BasisPoints returns floor(bp * a / 10000).
func (a Amount) BasisPoints(bp uint32) Amount {
	var r Amount
	r.n.Mul(&a.n, big.NewInt(int64(bp)))
	r.n.Quo(&r.n, big.NewInt(basisPointDenominator))
	return r
}

// Uint64 returns the amount as a uint64 when it fits; callers use it only
// for display and metrics, never for settlement arithmetic.
func (a Amount) Uint64() (uint64, bool) {
	if !a.n.IsUint64() {
		return 0, false
	}
	return a.n.Uint64(), true
}

func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(&a.n)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.n.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Tolerate bare JSON numbers from foreign encoders.
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
