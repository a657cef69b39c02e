package bytecode

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/moss-lang/moss/opcodes"
)

// Write serialises a full .msb container: header followed by the
// instruction stream, in the exact field order spec.md §6 specifies.
func Write(w io.Writer, b *Bytecode) error {
	body, err := encodeInstructions(b.Instructions)
	if err != nil {
		return err
	}
	b.Header.Checksum = crc32.ChecksumIEEE(body)

	var hdr [16]byte
	binary.LittleEndian.PutUint32(hdr[0:4], b.Header.IDTag)
	binary.LittleEndian.PutUint32(hdr[4:8], b.Header.Checksum)
	binary.LittleEndian.PutUint32(hdr[8:12], b.Header.Version)
	binary.LittleEndian.PutUint32(hdr[12:16], b.Header.Timestamp)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	var nameLen [4]byte
	binary.LittleEndian.PutUint32(nameLen[:], uint32(len(b.ModuleName)))
	if _, err := w.Write(nameLen[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, b.ModuleName); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func encodeInstructions(ins []*opcodes.Instruction) ([]byte, error) {
	buf := &byteSliceWriter{}
	enc := opcodes.NewEncoder(buf)
	for _, in := range ins {
		if err := enc.Encode(in); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.b, nil
}

type byteSliceWriter struct{ b []byte }

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// Read parses a full .msb container, verifying the header magic and
// checksum before trusting the instruction stream (SPEC_FULL.md §C).
func Read(r io.Reader) (*Bytecode, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("bytecode: read header: %w", err)
	}
	b := &Bytecode{}
	b.Header.IDTag = binary.LittleEndian.Uint32(hdr[0:4])
	b.Header.Checksum = binary.LittleEndian.Uint32(hdr[4:8])
	b.Header.Version = binary.LittleEndian.Uint32(hdr[8:12])
	b.Header.Timestamp = binary.LittleEndian.Uint32(hdr[12:16])
	if b.Header.IDTag != HeaderMagic {
		return nil, fmt.Errorf("bytecode: bad id tag %#x, expected %#x", b.Header.IDTag, HeaderMagic)
	}

	var nameLen [4]byte
	if _, err := io.ReadFull(r, nameLen[:]); err != nil {
		return nil, fmt.Errorf("bytecode: read module name length: %w", err)
	}
	nameBuf := make([]byte, binary.LittleEndian.Uint32(nameLen[:]))
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("bytecode: read module name: %w", err)
	}
	b.ModuleName = string(nameBuf)

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bytecode: read body: %w", err)
	}
	if crc32.ChecksumIEEE(rest) != b.Header.Checksum {
		return nil, fmt.Errorf("bytecode: checksum mismatch for module %q", b.ModuleName)
	}

	dec := opcodes.NewDecoder(&byteSliceReader{b: rest})
	for {
		in, err := dec.Decode()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("bytecode: decode instruction %d: %w", len(b.Instructions), err)
		}
		b.Instructions = append(b.Instructions, in)
	}
	return b, nil
}

type byteSliceReader struct {
	b   []byte
	pos int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
