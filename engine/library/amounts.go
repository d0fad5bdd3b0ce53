package library

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const LamportsPerSol = 1_000_000_000

// FormatLamports renders lamports as a SOL amount, e.g. 10000000 -> "0.01 SOL".
func FormatLamports(l Lamports) string {
	return decimal.NewFromInt(int64(l)).Shift(-9).String() + " SOL"
}

// SolToLamports converts a decimal SOL string. Fractions below one lamport are truncated.
func SolToLamports(sol string) (Lamports, error) {
	d, err := decimal.NewFromString(sol)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", sol)
	}
	return Lamports(d.Shift(9).Truncate(0).IntPart()), nil
}
