package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-session-auth/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, "hash", utils.Value(utils.Ptr("hash")))
}

func TestAtoiDefault(t *testing.T) {
	require.Equal(t, 7, utils.AtoiDefault("", 7))
	require.Equal(t, 7, utils.AtoiDefault("abc", 7))
	require.Equal(t, 7, utils.AtoiDefault("-1", 7))
	require.Equal(t, 3, utils.AtoiDefault("3", 7))
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, 50, utils.ClampLimit(0, 50, 100))
	require.Equal(t, 100, utils.ClampLimit(500, 50, 100))
	require.Equal(t, 10, utils.ClampLimit(10, 50, 100))
}
