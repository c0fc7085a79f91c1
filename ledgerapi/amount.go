package ledgerapi

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/bossboy914/Sothebys-Auction-Smart-Contract/ledger"
)

// AmountDecimals is the display precision of the ledger currency: one
// display unit is 10^AmountDecimals base units. All wire amounts are decimal
// strings in display units; the ledger itself only ever sees integral base
// units.
const AmountDecimals = 8

var maxBaseUnits = new(big.Int).SetUint64(^uint64(0))

// ParseAmount converts a display-unit decimal string ("2", "0.5") into base
// units. Negative values, more than AmountDecimals fractional digits, and
// values that do not fit the base-unit representation are rejected.
func ParseAmount(s string) (ledger.Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: must not be negative", s)
	}

	scaled := d.Shift(AmountDecimals)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than %d decimal places", s, AmountDecimals)
	}

	units := scaled.BigInt()
	if units.Cmp(maxBaseUnits) > 0 {
		return 0, fmt.Errorf("invalid amount %q: %w", s, ledger.ErrOverflow)
	}
	return ledger.Amount(units.Uint64()), nil
}

// FormatAmount renders base units as a display-unit decimal string, the
// inverse of ParseAmount.
func FormatAmount(a ledger.Amount) string {
	units := new(big.Int).SetUint64(uint64(a))
	return decimal.NewFromBigInt(units, -AmountDecimals).String()
}
