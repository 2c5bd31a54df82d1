package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeFor(t *testing.T) {
	assert.Equal(t, int64(1000), FeeFor("MPESA_TRANSFER", 100000))
	assert.Equal(t, int64(1500), FeeFor("BANK_TRANSFER", 100000))
	assert.Equal(t, int64(0), FeeFor("MANUAL", 100000))
	assert.Equal(t, int64(0), FeeFor("CARRIER_PIGEON", 100000))
}
