package opcodes

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Wire format (spec.md §6): opcode-byte followed by a fixed packed payload.
// Registers and addresses are 32-bit little-endian. String constants are a
// 32-bit LE length followed by UTF-8 bytes. Int constants are 64-bit LE
// two's complement. Float constants are 64-bit LE IEEE-754. Bool constants
// are one byte. Implementations must reproduce this layout exactly so that
// previously serialised bytecode files stay executable.

// Encoder writes instructions to the wire format.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder wraps w for writing Moss wire-format instructions.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

func (e *Encoder) writeU32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := e.w.Write(b[:])
	return err
}

func (e *Encoder) writeU64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := e.w.Write(b[:])
	return err
}

func (e *Encoder) writeString(s string) error {
	if err := e.writeU32(uint32(len(s))); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

func (e *Encoder) writeBool(b bool) error {
	var v byte
	if b {
		v = 1
	}
	return e.w.WriteByte(v)
}

// Encode writes a single instruction in its per-opcode packed payload.
func (e *Encoder) Encode(in *Instruction) error {
	if err := e.w.WriteByte(byte(in.Op)); err != nil {
		return err
	}
	switch in.Op {
	case END, PUSH_FRAME, POP_FRAME, PUSH_CALL_FRAME, POP_CALL_FRAME, POP_CATCH,
		PUSH_FINALLY_STACK, POP_FINALLY, POP_FINALLY_STACK:
		return nil
	case LOAD, LOAD_GLOBAL, LOAD_NONLOC:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case LOAD_ATTR:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case STORE:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case STORE_NAME, STORE_GLOBAL, STORE_NONLOC:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case STORE_CONST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case STORE_ATTR, STORE_CONST_ATTR:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case STORE_SUBSC, STORE_CONST_SUBSC, STORE_SUBSC_CONST, STORE_C_SUBSC_C:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src2))
	case STORE_INT_CONST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU64(uint64(in.IntLit))
	case STORE_FLOAT_CONST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU64(math.Float64bits(in.FloatLit))
	case STORE_BOOL_CONST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeBool(in.BoolLit)
	case STORE_STRING_CONST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.StringLit)
	case STORE_NIL_CONST:
		return e.writeU32(uint32(in.Dst))
	case JMP, PUSH_FINALLY:
		return e.writeU32(uint32(in.Addr))
	case JMP_IF_TRUE, JMP_IF_FALSE:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Addr))
	case CALL:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case CALL_FORMATTER:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case RETURN:
		return e.writeU32(uint32(in.Src1))
	case RETURN_CONST:
		return e.writeU32(uint32(in.Src1))
	case RAISE:
		return e.writeU32(uint32(in.Src1))
	case CATCH:
		if err := e.writeString(in.Name); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Addr))
	case CATCH_TYPED:
		if err := e.writeString(in.Name); err != nil {
			return err
		}
		if err := e.writeString(in.TypeName); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Addr))
	case IMPORT:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case IMPORT_ALL:
		return e.writeU32(uint32(in.Src1))
	case BUILD_CLASS, BUILD_SPACE:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case PUSH_PARENT:
		return e.writeU32(uint32(in.Src1))
	case ANNOTATE:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeString(in.Name); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case ANNOTATE_MOD:
		if err := e.writeString(in.Name); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case DOCUMENT:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case OUTPUT:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeBool(in.Silent)
	case NOT, NEG:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case ASSERT:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src2))
	case LIST_PUSH, LIST_PUSH_CONST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case BUILD_LIST:
		return e.writeU32(uint32(in.Dst))
	case BUILD_DICT:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src2))
	case BUILD_ENUM:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeString(in.Name)
	case FOR:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Addr))
	case ITER:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case SUBSCLAST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src1))
	case SUBSCREST:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src2))
	case CREATE_RANGE, CREATE_RANGE2, CREATE_RANGE3, CREATE_RANGE4,
		CREATE_RANGE5, CREATE_RANGE6, CREATE_RANGE7, CREATE_RANGE8:
		if err := e.writeU32(uint32(in.Dst)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src2)); err != nil {
			return err
		}
		return e.writeU32(uint32(in.Src3))
	case SWITCH:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(len(in.SwitchVals))); err != nil {
			return err
		}
		for _, r := range in.SwitchVals {
			if err := e.writeU32(uint32(r)); err != nil {
				return err
			}
		}
		for _, a := range in.SwitchAddrs {
			if err := e.writeU32(uint32(a)); err != nil {
				return err
			}
		}
		return e.writeU32(uint32(in.SwitchDefault))
	case FOR_MULTI:
		if err := e.writeU32(uint32(in.Src1)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(in.Src2)); err != nil {
			return err
		}
		if err := e.writeU32(uint32(len(in.Vals))); err != nil {
			return err
		}
		for _, r := range in.Vals {
			if err := e.writeU32(uint32(r)); err != nil {
				return err
			}
		}
		return e.writeU32(uint32(in.Addr))
	default:
		if _, _, ok := arithmeticFamily(in.Op); ok {
			if err := e.writeU32(uint32(in.Dst)); err != nil {
				return err
			}
			if err := e.writeU32(uint32(in.Src1)); err != nil {
				return err
			}
			return e.writeU32(uint32(in.Src2))
		}
		return fmt.Errorf("opcodes: encode: unsupported opcode %s", in.Op)
	}
}

// Flush writes any buffered bytes to the underlying writer.
func (e *Encoder) Flush() error { return e.w.Flush() }

// Decoder reads instructions from the wire format.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r for reading Moss wire-format instructions.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func (d *Decoder) readU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (d *Decoder) readU64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (d *Decoder) readString() (string, error) {
	n, err := d.readU32()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *Decoder) readBool() (bool, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// Decode reads one instruction, or returns io.EOF when the stream is
// exhausted at an instruction boundary.
func (d *Decoder) Decode() (*Instruction, error) {
	opByte, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}
	op := Opcode(opByte)
	if !op.IsValid() {
		return nil, fmt.Errorf("opcodes: decode: opcode tag %d out of range", opByte)
	}
	in := &Instruction{Op: op}

	readReg := func() (Register, error) {
		v, err := d.readU32()
		return Register(v), err
	}
	readAddr := func() (Address, error) {
		v, err := d.readU32()
		return Address(v), err
	}

	switch op {
	case END, PUSH_FRAME, POP_FRAME, PUSH_CALL_FRAME, POP_CALL_FRAME, POP_CATCH,
		PUSH_FINALLY_STACK, POP_FINALLY, POP_FINALLY_STACK:
		return in, nil
	case LOAD, LOAD_GLOBAL, LOAD_NONLOC:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case LOAD_ATTR:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case STORE, STORE_CONST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case STORE_NAME, STORE_GLOBAL, STORE_NONLOC:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case STORE_ATTR, STORE_CONST_ATTR:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case STORE_SUBSC, STORE_CONST_SUBSC, STORE_SUBSC_CONST, STORE_C_SUBSC_C:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src2, err = readReg()
		return in, err
	case STORE_INT_CONST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		v, err := d.readU64()
		in.IntLit = int64(v)
		return in, err
	case STORE_FLOAT_CONST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		v, err := d.readU64()
		in.FloatLit = math.Float64frombits(v)
		return in, err
	case STORE_BOOL_CONST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.BoolLit, err = d.readBool()
		return in, err
	case STORE_STRING_CONST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.StringLit, err = d.readString()
		return in, err
	case STORE_NIL_CONST:
		in.Dst, err = readReg()
		return in, err
	case JMP, PUSH_FINALLY:
		in.Addr, err = readAddr()
		return in, err
	case JMP_IF_TRUE, JMP_IF_FALSE:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Addr, err = readAddr()
		return in, err
	case CALL:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case CALL_FORMATTER:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case RETURN, RETURN_CONST, RAISE:
		in.Src1, err = readReg()
		return in, err
	case CATCH:
		if in.Name, err = d.readString(); err != nil {
			return nil, err
		}
		in.Addr, err = readAddr()
		return in, err
	case CATCH_TYPED:
		if in.Name, err = d.readString(); err != nil {
			return nil, err
		}
		if in.TypeName, err = d.readString(); err != nil {
			return nil, err
		}
		in.Addr, err = readAddr()
		return in, err
	case IMPORT:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case IMPORT_ALL, PUSH_PARENT:
		in.Src1, err = readReg()
		return in, err
	case BUILD_CLASS, BUILD_SPACE:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case ANNOTATE:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Name, err = d.readString(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case ANNOTATE_MOD:
		if in.Name, err = d.readString(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case DOCUMENT:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case OUTPUT:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Silent, err = d.readBool()
		return in, err
	case NOT, NEG:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case ASSERT:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Src2, err = readReg()
		return in, err
	case LIST_PUSH, LIST_PUSH_CONST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case BUILD_LIST:
		in.Dst, err = readReg()
		return in, err
	case BUILD_DICT:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Src2, err = readReg()
		return in, err
	case BUILD_ENUM:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Name, err = d.readString()
		return in, err
	case FOR:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Addr, err = readAddr()
		return in, err
	case ITER:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case SUBSCLAST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		in.Src1, err = readReg()
		return in, err
	case SUBSCREST:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		in.Src2, err = readReg()
		return in, err
	case CREATE_RANGE, CREATE_RANGE2, CREATE_RANGE3, CREATE_RANGE4,
		CREATE_RANGE5, CREATE_RANGE6, CREATE_RANGE7, CREATE_RANGE8:
		if in.Dst, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src2, err = readReg(); err != nil {
			return nil, err
		}
		in.Src3, err = readReg()
		return in, err
	case SWITCH:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		n, err2 := d.readU32()
		if err2 != nil {
			return nil, err2
		}
		in.SwitchVals = make([]Register, n)
		for idx := range in.SwitchVals {
			if in.SwitchVals[idx], err = readReg(); err != nil {
				return nil, err
			}
		}
		in.SwitchAddrs = make([]Address, n)
		for idx := range in.SwitchAddrs {
			if in.SwitchAddrs[idx], err = readAddr(); err != nil {
				return nil, err
			}
		}
		in.SwitchDefault, err = readAddr()
		return in, err
	case FOR_MULTI:
		if in.Src1, err = readReg(); err != nil {
			return nil, err
		}
		if in.Src2, err = readReg(); err != nil {
			return nil, err
		}
		n, err2 := d.readU32()
		if err2 != nil {
			return nil, err2
		}
		in.Vals = make([]Register, n)
		for idx := range in.Vals {
			if in.Vals[idx], err = readReg(); err != nil {
				return nil, err
			}
		}
		in.Addr, err = readAddr()
		return in, err
	default:
		if _, _, ok := arithmeticFamily(op); ok {
			if in.Dst, err = readReg(); err != nil {
				return nil, err
			}
			if in.Src1, err = readReg(); err != nil {
				return nil, err
			}
			in.Src2, err = readReg()
			return in, err
		}
		return nil, fmt.Errorf("opcodes: decode: unsupported opcode %s", op)
	}
}
