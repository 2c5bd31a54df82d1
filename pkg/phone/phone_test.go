package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("accepted forms converge on canonical", func(t *testing.T) {
		for _, in := range []string{
			"0712345678",
			"712345678",
			"254712345678",
			"+254712345678",
			"0712 345 678",
			"+254 712-345-678",
		} {
			got, err := Normalize(in)
			require.NoError(t, err, "input %q", in)
			assert.Equal(t, "+254712345678", got, "input %q", in)
		}
	})

	t.Run("idempotent on canonical form", func(t *testing.T) {
		once, err := Normalize("+254712345678")
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("rejects unrecognizable numbers", func(t *testing.T) {
		for _, in := range []string{
			"",
			"abc",
			"12345",
			"07123456789",  // local form too long
			"2547123456789", // prefixed form too long
			"071234567",    // local form too short
		} {
			_, err := Normalize(in)
			assert.ErrorIs(t, err, ErrInvalid, "input %q", in)
		}
	})
}

func TestGatewayFormat(t *testing.T) {
	assert.Equal(t, "254712345678", GatewayFormat("+254712345678"))
	assert.Equal(t, "254712345678", GatewayFormat("254712345678"))
}
