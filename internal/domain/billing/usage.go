package billing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// UsageCost extracts the usage based charge from the latest usage payload.
// A numeric totalCost or usageCost wins, otherwise units*unitPrice when both
// are numeric, otherwise zero.
func UsageCost(payload map[string]any) decimal.Decimal {
	if payload == nil {
		return decimal.Zero
	}
	for _, key := range []string{"totalCost", "usageCost"} {
		if v, ok := numeric(payload[key]); ok {
			return v
		}
	}
	units, okUnits := numeric(payload["units"])
	price, okPrice := numeric(payload["unitPrice"])
	if okUnits && okPrice {
		return units.Mul(price)
	}
	return decimal.Zero
}

func numeric(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}
