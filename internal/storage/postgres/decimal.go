package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts are stored as TEXT so both backends share one exact representation.
type decimalField struct {
	raw  string
	dest *decimal.Decimal
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("invalid stored amount %q: %w", f.raw, err)
		}
		*f.dest = v
	}
	return nil
}
