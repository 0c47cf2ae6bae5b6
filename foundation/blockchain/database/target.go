package database

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Target is the 256 bit unsigned integer a header digest must not exceed to
// be considered mined. It's stored big-endian so it serializes as 32 bytes.
type Target [32]byte

// TargetFromInt converts an integer into a target.
func TargetFromInt(v *uint256.Int) Target {
	return Target(v.Bytes32())
}

// Int returns the integer value of the target.
func (t Target) Int() *uint256.Int {
	return new(uint256.Int).SetBytes32(t[:])
}

// String implements the fmt.Stringer interface.
func (t Target) String() string {
	return hexutil.Encode(t[:])
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}

	if len(b) != len(t) {
		return fmt.Errorf("invalid target length, got %d, exp %d", len(b), len(t))
	}

	copy(t[:], b)
	return nil
}

// =============================================================================

// NextTarget scales the current target by the ratio between the time it took
// to mine the last interval of blocks and the time it should have taken. The
// result is truncated toward zero, kept within a factor of 4 of the current
// target and never allowed above the minimum target.
func NextTarget(current *uint256.Int, elapsed uint64, ideal uint64, minTarget *uint256.Int) *uint256.Int {
	if ideal == 0 {
		return clampMin(new(uint256.Int).Set(current), minTarget)
	}

	// The product of a 256 bit target and a 64 bit duration can't be held
	// in 256 bits so the math happens in arbitrary precision.
	scaled := decimal.NewFromBigInt(current.ToBig(), 0).
		Mul(decimal.NewFromBigInt(new(big.Int).SetUint64(elapsed), 0))

	quotient, _ := scaled.QuoRem(decimal.NewFromBigInt(new(big.Int).SetUint64(ideal), 0), 0)

	next, overflow := uint256.FromBig(quotient.BigInt())
	if overflow {
		next = new(uint256.Int).SetAllOne()
	}

	lower := new(uint256.Int).Rsh(current, 2)
	upper, overflow := new(uint256.Int).MulOverflow(current, uint256.NewInt(4))
	if overflow {
		upper.SetAllOne()
	}

	switch {
	case next.Lt(lower):
		next.Set(lower)
	case next.Gt(upper):
		next.Set(upper)
	}

	return clampMin(next, minTarget)
}

// clampMin keeps the target at or below the easiest target allowed.
func clampMin(target *uint256.Int, minTarget *uint256.Int) *uint256.Int {
	if target.Gt(minTarget) {
		return target.Set(minTarget)
	}
	return target
}
