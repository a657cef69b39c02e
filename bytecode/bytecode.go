// Package bytecode models the on-disk container a front end hands to the
// interpreter: a header plus a flat instruction stream (spec.md §6).
package bytecode

import "github.com/moss-lang/moss/opcodes"

// HeaderMagic is the fixed id tag every Moss bytecode file starts with,
// grounded on original_source/bytecode/bytecode_header.hpp.
const HeaderMagic uint32 = 0xFF00002A

// Header is the fixed-size preamble of a .msb file.
type Header struct {
	IDTag     uint32 // always HeaderMagic; rejects non-Moss files early
	Checksum  uint32 // reserved checksum field over the instruction bytes
	Version   uint32 // packed 24-bit version, top byte reserved/zero
	Timestamp uint32 // unix seconds at compile time
}

// Bytecode is a complete compiled chunk: header plus instructions. It is
// the sole input the Interpreter needs to run (spec.md §6 "Inputs to the
// core"); everything that produced it (lexer, parser, code generator) is
// external to this module.
type Bytecode struct {
	Header       Header
	Instructions []*opcodes.Instruction
	ModuleName   string
}

// New constructs an empty Bytecode chunk for the given module name, stamping
// the header with the current Moss wire-format version.
func New(moduleName string, timestamp uint32) *Bytecode {
	return &Bytecode{
		Header: Header{
			IDTag:     HeaderMagic,
			Version:   packVersion(0, 1, 0),
			Timestamp: timestamp,
		},
		ModuleName: moduleName,
	}
}

func packVersion(major, minor, patch byte) uint32 {
	return uint32(major)<<16 | uint32(minor)<<8 | uint32(patch)
}

// UnpackVersion splits a packed 24-bit version back into components.
func UnpackVersion(v uint32) (major, minor, patch byte) {
	return byte(v >> 16), byte(v >> 8), byte(v)
}

// Len returns the number of instructions in the chunk.
func (b *Bytecode) Len() int { return len(b.Instructions) }

// At returns the instruction at address addr, or nil if out of range.
func (b *Bytecode) At(addr opcodes.Address) *opcodes.Instruction {
	if int(addr) < 0 || int(addr) >= len(b.Instructions) {
		return nil
	}
	return b.Instructions[addr]
}

// Append adds an instruction and returns its address.
func (b *Bytecode) Append(in *opcodes.Instruction) opcodes.Address {
	addr := opcodes.Address(len(b.Instructions))
	b.Instructions = append(b.Instructions, in)
	return addr
}
