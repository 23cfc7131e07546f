package utils_test

import (
	"testing"

	"github.com/jrsteele09/trails-auth/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestPointerHelpers(t *testing.T) {
	t.Run("value of nil is zero", func(t *testing.T) {
		var s *string
		require.Equal(t, "", utils.Value(s))
		require.Equal(t, "x", utils.Value(utils.Ptr("x")))
	})

	t.Run("optional string", func(t *testing.T) {
		require.Nil(t, utils.OptionalString(""))
		require.Equal(t, "0821234567", *utils.OptionalString("0821234567"))
	})

	t.Run("equal pointers", func(t *testing.T) {
		require.True(t, utils.EqualPtr[string](nil, nil))
		require.False(t, utils.EqualPtr(utils.Ptr("a"), nil))
		require.True(t, utils.EqualPtr(utils.Ptr("a"), utils.Ptr("a")))
		require.False(t, utils.EqualPtr(utils.Ptr("a"), utils.Ptr("b")))
	})
}
