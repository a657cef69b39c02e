package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/opcodes"
	"github.com/moss-lang/moss/vm"
)

func writeModuleFile(t *testing.T, dir, relPath string) {
	t.Helper()
	bc := bytecode.New("m", 0)
	bc.Append(&opcodes.Instruction{Op: opcodes.STORE_INT_CONST, Dst: 0, IntLit: 1})

	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	f, err := os.Create(full)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, bytecode.Write(f, bc))
}

func TestSiblingModuleLoader_ResolvesDottedName(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, filepath.Join("pkg", "util.msb"))

	loader := siblingModuleLoader(dir)
	rt := vm.NewRuntime(false)
	mod, err := loader(rt, "pkg.util")
	require.NoError(t, err)
	require.Equal(t, vm.KindModule, mod.Kind)
}

func TestSiblingModuleLoader_MissingFile(t *testing.T) {
	dir := t.TempDir()
	loader := siblingModuleLoader(dir)
	rt := vm.NewRuntime(false)
	_, err := loader(rt, "nope")
	require.Error(t, err)
}
