package simplename_test

import (
	"strings"
	"testing"

	"github.com/cirruslabs/vmpower/internal/simplename"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, simplename.Validate("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz:-_."))
	require.NoError(t, simplename.Validate("web-01"))
	require.NoError(t, simplename.Validate("db_02"))
	require.NoError(t, simplename.Validate("build.local"))

	require.ErrorIs(t, simplename.Validate(""), simplename.ErrEmpty)
	require.ErrorIs(t, simplename.Validate(strings.Repeat("a", 81)), simplename.ErrTooLong)
	require.ErrorIs(t, simplename.Validate("vm/1"), simplename.ErrNotASimpleName, "path separators")
	require.ErrorIs(t, simplename.Validate("vm%"), simplename.ErrNotASimpleName, "special characters")
	require.ErrorIs(t, simplename.Validate("üòê"), simplename.ErrNotASimpleName, "non-ASCII characters")
}
