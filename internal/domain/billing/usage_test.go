package billing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUsageCost(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{name: "nil payload", payload: nil, want: "0"},
		{name: "total cost", payload: map[string]any{"totalCost": 4.25, "usageCost": 9.0}, want: "4.25"},
		{name: "usage cost", payload: map[string]any{"usageCost": 3}, want: "3"},
		{name: "json number", payload: map[string]any{"totalCost": json.Number("1.10")}, want: "1.1"},
		{name: "units times price", payload: map[string]any{"units": 120.0, "unitPrice": 0.05}, want: "6"},
		{name: "non numeric total falls through", payload: map[string]any{"totalCost": "12", "units": 2, "unitPrice": 1.5}, want: "3"},
		{name: "missing price", payload: map[string]any{"units": 5}, want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(UsageCost(tt.payload)),
				"got %s", UsageCost(tt.payload))
		})
	}
}
