package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClasses_ExceptionHierarchyCatchesByCategory(t *testing.T) {
	rt := NewRuntime(false)

	tests := []struct {
		raised   string
		caughtBy string
	}{
		{"KeyError", "LookupError"},
		{"IndexError", "LookupError"},
		{"DivisionByZeroError", "MathError"},
		{"FileNotFoundError", "OSError"},
		{"KeyError", "Exception"},
		{"ModuleNotFoundError", "Exception"},
	}
	for _, tt := range tests {
		exc := rt.builtins[tt.raised]
		require.NotNil(t, exc, "missing builtin class %s", tt.raised)
		category := rt.builtins[tt.caughtBy]
		require.NotNil(t, category, "missing builtin class %s", tt.caughtBy)
		require.True(t, isTypeEqOrSubtype(exc, category),
			"%s should be caught by %s", tt.raised, tt.caughtBy)
	}

	require.False(t, isTypeEqOrSubtype(rt.builtins["KeyError"], rt.builtins["MathError"]))
}

func TestClasses_NewErrorSetsMessage(t *testing.T) {
	rt := NewRuntime(false)
	exc := rt.NewError("DivisionByZeroError", "division by zero")
	require.Equal(t, "DivisionByZeroError", exc.Type.Name)
	msg, ok := exc.GetAttr("message")
	require.True(t, ok)
	require.Equal(t, "division by zero", msg.Data)
}
