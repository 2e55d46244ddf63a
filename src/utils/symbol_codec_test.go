package utils

import (
	"testing"
	"time"

	"quote-bridge/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func contract(t *testing.T, exp string, strike string, typ models.OptionType) models.MOptionContract {
	t.Helper()
	e, err := time.Parse(models.ExpirationLayout, exp)
	if err != nil {
		t.Fatalf("bad expiration %q: %v", exp, err)
	}
	return models.MOptionContract{Expiration: e, Strike: decimal.RequireFromString(strike), OptionType: typ}
}

func TestEncodeSymbol(t *testing.T) {
	cases := []struct {
		name string
		c    models.MOptionContract
		want string
	}{
		{"call", contract(t, "2025-03-21", "5900", models.OptionCall), ".SPXW250321C5900"},
		{"put", contract(t, "2025-03-21", "5900", models.OptionPut), ".SPXW250321P5900"},
		{"half strike", contract(t, "2026-01-02", "5902.5", models.OptionCall), ".SPXW260102C5902.5"},
		{"trailing zeros dropped", contract(t, "2025-12-19", "6000.00", models.OptionPut), ".SPXW251219P6000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EncodeSymbol(".SPXW", tc.c))
		})
	}
}

func TestEncodeSymbol_Deterministic(t *testing.T) {
	c := contract(t, "2025-03-21", "5900", models.OptionCall)
	assert.Equal(t, EncodeSymbol(".SPX", c), EncodeSymbol(".SPX", c))
	assert.Equal(t, ".SPX250321C5900", EncodeSymbol(".SPX", c))
}
