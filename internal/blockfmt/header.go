package blockfmt

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Header captures the fixed 10-word DTB header (spec §3 "Header"). All
// fields are decoded from big-endian words in file order.
type Header struct {
	Magic           uint32
	TotalSize       uint32
	OffDtStruct     uint32
	OffDtStrings    uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCpuidPhys   uint32
	SizeDtStrings   uint32
	SizeDtStruct    uint32
}

// CheckFailure is returned by ParseHeader and pairs the offending value with
// the byte offset of the failing check, per spec §7 (every error taxonomy
// entry carries an offset) and §4.1 ("a strict, ordered checklist").
type CheckFailure struct {
	Err    error
	Value  uint32
	Offset int
}

func (c *CheckFailure) Error() string {
	return fmt.Sprintf("%v (value=0x%x, offset=%d)", c.Err, c.Value, c.Offset)
}

func (c *CheckFailure) Unwrap() error { return c.Err }

// ParseHeader validates the header checklist of spec §3 invariant 1 and
// §4.1 in this order: alignment, length, magic, last_comp_version,
// total_size, the structure-block range, the strings-block range. It then
// validates the structure-block root framing
// (first word BEGIN_NODE + empty name, trailer END_NODE/END). b must be the
// full blob, word-aligned per §4.1 ("Alignment requirement for the blob base
// pointer is the machine word alignment").
func ParseHeader(b []byte) (Header, error) {
	if uintptr(unsafe.Pointer(&b[0]))%unsafe.Alignof(uintptr(0)) != 0 {
		return Header{}, &CheckFailure{Err: ErrUnaligned, Offset: 0}
	}
	if len(b) < HeaderSize {
		return Header{}, &CheckFailure{Err: ErrTruncated, Value: uint32(len(b)), Offset: 0}
	}

	words := make([]uint32, HeaderWords)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(b[i*BlockLen : i*BlockLen+BlockLen])
	}
	h := Header{
		Magic:           words[0],
		TotalSize:       words[1],
		OffDtStruct:     words[2],
		OffDtStrings:    words[3],
		OffMemRsvmap:    words[4],
		Version:         words[5],
		LastCompVersion: words[6],
		BootCpuidPhys:   words[7],
		SizeDtStrings:   words[8],
		SizeDtStruct:    words[9],
	}

	if h.Magic != Magic {
		return Header{}, &CheckFailure{Err: ErrBadMagic, Value: h.Magic, Offset: 0}
	}
	if h.LastCompVersion > MaxSupportedLastCompVersion {
		return Header{}, &CheckFailure{Err: ErrUnsupportedVersion, Value: h.LastCompVersion, Offset: 6 * BlockLen}
	}
	if h.TotalSize < HeaderSize {
		return Header{}, &CheckFailure{Err: ErrTruncated, Value: h.TotalSize, Offset: 1 * BlockLen}
	}
	if uint64(len(b)) < uint64(h.TotalSize) {
		return Header{}, &CheckFailure{Err: ErrTruncated, Value: h.TotalSize, Offset: 1 * BlockLen}
	}
	if err := checkRange(h.OffDtStruct, h.SizeDtStruct, h.TotalSize, 2*BlockLen); err != nil {
		return Header{}, err
	}
	if err := checkRange(h.OffDtStrings, h.SizeDtStrings, h.TotalSize, 3*BlockLen); err != nil {
		return Header{}, err
	}

	structure := b[h.OffDtStruct : h.OffDtStruct+h.SizeDtStruct]
	if err := checkRootFraming(structure, h.OffDtStruct); err != nil {
		return Header{}, err
	}

	return h, nil
}

// EncodeHeader renders h as the fixed 40-byte big-endian header, the
// counterpart to ParseHeader used by the serializer (spec §4.6 "header").
func EncodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	words := [HeaderWords]uint32{
		h.Magic, h.TotalSize, h.OffDtStruct, h.OffDtStrings, h.OffMemRsvmap,
		h.Version, h.LastCompVersion, h.BootCpuidPhys, h.SizeDtStrings, h.SizeDtStruct,
	}
	for i, w := range words {
		binary.BigEndian.PutUint32(b[i*BlockLen:i*BlockLen+BlockLen], w)
	}
	return b
}

func checkRange(off, size, total uint32, offsetField int) error {
	if off > total || size > total-off {
		return &CheckFailure{Err: ErrOffsetOutOfRange, Value: off, Offset: offsetField}
	}
	return nil
}

// checkRootFraming verifies the first structure word is BEGIN_NODE followed
// by an empty name, and that the last two non-NOP words are END_NODE, END
// (spec §3 invariant 1, §9 "Case where the root BEGIN_NODE is followed by a
// non-empty name: reject at header verification").
func checkRootFraming(structure []byte, base uint32) error {
	if len(structure) < 2*BlockLen {
		return &CheckFailure{Err: ErrTruncated, Offset: int(base)}
	}
	first := binary.BigEndian.Uint32(structure[0:BlockLen])
	if first != TokenBeginNode {
		return &CheckFailure{Err: ErrBadTrailer, Value: first, Offset: int(base)}
	}
	// Root name must be empty: the byte right after the token must be NUL.
	if structure[BlockLen] != 0 {
		return &CheckFailure{Err: ErrBadRootName, Offset: int(base) + BlockLen}
	}

	// Walk backward over trailing NOPs to find END, then END_NODE.
	end := len(structure)
	word := func(i int) (uint32, bool) {
		if i < 0 || i+BlockLen > len(structure) {
			return 0, false
		}
		return binary.BigEndian.Uint32(structure[i : i+BlockLen]), true
	}
	i := end - BlockLen
	var last uint32
	ok := false
	for i >= 0 {
		w, present := word(i)
		if !present {
			break
		}
		if w == TokenNop {
			i -= BlockLen
			continue
		}
		last, ok = w, true
		break
	}
	if !ok || last != TokenEnd {
		return &CheckFailure{Err: ErrBadTrailer, Value: last, Offset: int(base) + i}
	}
	i -= BlockLen
	for i >= 0 {
		w, present := word(i)
		if !present {
			break
		}
		if w == TokenNop {
			i -= BlockLen
			continue
		}
		if w != TokenEndNode {
			return &CheckFailure{Err: ErrBadTrailer, Value: w, Offset: int(base) + i}
		}
		return nil
	}
	return &CheckFailure{Err: ErrBadTrailer, Offset: int(base)}
}
