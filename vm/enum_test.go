package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnum_OrdinalsMatchDeclarationOrder(t *testing.T) {
	rt := NewRuntime(false)
	et := rt.NewEnumType("Color", []string{"Red", "Green", "Blue"})
	td := et.Data.(*enumTypeData)
	require.Len(t, td.Values, 3)

	red, ok := td.Value("Red")
	require.True(t, ok)
	require.Equal(t, 0, red.Data.(*enumValueData).Ordinal)
	require.Same(t, et, red.Type)

	blue, ok := td.Value("Blue")
	require.True(t, ok)
	require.Equal(t, 2, blue.Data.(*enumValueData).Ordinal)

	_, ok = td.Value("Purple")
	require.False(t, ok)
}

func TestEnum_ValuesEqualByTypeAndName(t *testing.T) {
	rt := NewRuntime(false)
	et := rt.NewEnumType("Color", []string{"Red", "Green"})
	td := et.Data.(*enumTypeData)
	red, _ := td.Value("Red")
	green, _ := td.Value("Green")

	in := NewInterpreter(rt, nil, true)
	eq, err := Equal(in, red, red)
	require.NoError(t, err)
	require.True(t, eq)

	eq, err = Equal(in, red, green)
	require.NoError(t, err)
	require.False(t, eq)
}
