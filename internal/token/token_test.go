package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	minter := NewMinter("test-secret")

	first, err := minter.Mint("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := minter.Mint("alice")
	require.NoError(t, err)

	// Same username, distinct sessions: the jti must make every mint unique.
	assert.NotEqual(t, first, second)
}
