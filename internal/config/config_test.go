package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeSchedule_AmountFor(t *testing.T) {
	fees := FeeSchedule{"sale": 50, "rent": 25}

	amount, ok := fees.AmountFor("sale")
	assert.True(t, ok)
	assert.Equal(t, 50.0, amount)

	amount, ok = fees.AmountFor("  RENT ")
	assert.True(t, ok)
	assert.Equal(t, 25.0, amount)

	_, ok = fees.AmountFor("timeshare")
	assert.False(t, ok)
}
