package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
)

func TestHasValidScale(t *testing.T) {
	for in, want := range map[string]bool{
		"10":      true,
		"3.3333":  true,
		"0.0001":  true,
		"1.50000": true,
		"3.33335": false,
		"0.00001": false,
	} {
		assert.Equal(t, want, inventory.HasValidScale(decimal.RequireFromString(in)), in)
	}
}
