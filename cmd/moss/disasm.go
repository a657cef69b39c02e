package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/moss-lang/moss/bytecode"
	"github.com/moss-lang/moss/opcodes"
)

var disasmCommand = &cli.Command{
	Name:      "disasm",
	Usage:     "print a .msb file's header and instruction stream",
	ArgsUsage: "<file.msb>",
	Action:    disasmAction,
}

func disasmAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("disasm: missing <file.msb> argument")
	}
	bc, err := loadBytecode(path)
	if err != nil {
		return err
	}

	major, minor, patch := bytecode.UnpackVersion(bc.Header.Version)
	fmt.Printf("module %q  version %d.%d.%d  checksum %#08x  timestamp %d\n",
		bc.ModuleName, major, minor, patch, bc.Header.Checksum, bc.Header.Timestamp)
	for addr := 0; addr < bc.Len(); addr++ {
		fmt.Printf("%6d  %s\n", addr, disasmLine(bc.At(opcodes.Address(addr))))
	}
	return nil
}

// disasmLine renders one instruction's mnemonic followed by those of its
// operands checked below that are non-zero, without a per-opcode
// operand-name table. BoolLit, ArgIndex, Silent, ConstMask, Keys/Vals and
// the Switch fields are not printed.
func disasmLine(in *opcodes.Instruction) string {
	var parts []string
	parts = append(parts, in.Op.String())
	if in.Dst != 0 {
		parts = append(parts, fmt.Sprintf("dst=r%d", in.Dst))
	}
	if in.Src1 != 0 {
		parts = append(parts, fmt.Sprintf("src1=r%d", in.Src1))
	}
	if in.Src2 != 0 {
		parts = append(parts, fmt.Sprintf("src2=r%d", in.Src2))
	}
	if in.Src3 != 0 {
		parts = append(parts, fmt.Sprintf("src3=r%d", in.Src3))
	}
	if in.Addr != 0 {
		parts = append(parts, fmt.Sprintf("addr=%d", in.Addr))
	}
	if in.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", in.Name))
	}
	if in.TypeName != "" {
		parts = append(parts, fmt.Sprintf("type=%q", in.TypeName))
	}
	if in.ArgSpec != "" {
		parts = append(parts, fmt.Sprintf("args=%q", in.ArgSpec))
	}
	if in.IntLit != 0 {
		parts = append(parts, fmt.Sprintf("int=%d", in.IntLit))
	}
	if in.FloatLit != 0 {
		parts = append(parts, fmt.Sprintf("float=%g", in.FloatLit))
	}
	if in.StringLit != "" {
		parts = append(parts, fmt.Sprintf("str=%q", in.StringLit))
	}
	return strings.Join(parts, " ")
}
