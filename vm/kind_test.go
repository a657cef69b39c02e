package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	require.Equal(t, "Int", KindInt.String())
	require.Equal(t, "Foreign", KindForeign.String())
	require.Equal(t, "Unknown", Kind(255).String())
}

func TestKind_Hashable(t *testing.T) {
	require.True(t, KindInt.Hashable())
	require.True(t, KindObject.Hashable())
	require.False(t, KindDict.Hashable())
	require.False(t, KindList.Hashable())
	require.False(t, KindIterator.Hashable())
}

func TestKind_Iterable(t *testing.T) {
	require.True(t, KindString.Iterable())
	require.True(t, KindList.Iterable())
	require.True(t, KindObject.Iterable())
	require.False(t, KindInt.Iterable())
}

func TestKind_Modifiable(t *testing.T) {
	require.True(t, KindClass.Modifiable())
	require.True(t, KindObject.Modifiable())
	require.True(t, KindRange.Modifiable())
	require.False(t, KindInt.Modifiable())
	require.False(t, KindList.Modifiable())
}

func TestKind_Immutable(t *testing.T) {
	require.True(t, KindInt.Immutable())
	require.True(t, KindClass.Immutable())
	require.False(t, KindObject.Immutable())
	require.False(t, KindList.Immutable())
	require.False(t, KindDict.Immutable())
}
