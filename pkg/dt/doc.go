// Package dt is the public API of dtbkit: typed decode/encode of Devicetree
// Blobs over a caller-owned byte buffer (spec §6 "Public API surface").
package dt

import (
	"errors"

	"github.com/dtbkit/dtbkit/internal/blockfmt"
	"github.com/dtbkit/dtbkit/internal/cursor"
)

// Doc is a decode session: a shared, interior-mutable handle over one
// caller-owned blob (spec §3 "Ownership & lifecycle"). Views returned from
// Unmarshal and the built-in collections never copy bytes: NodeSeq and
// Node hold a *Doc and a cursor, and StrSeq, Reg and Matrix hold a slice of
// the property value itself; the
// lifetime of any borrowed string or byte slice they expose is bound to
// this Doc's backing buffer, exactly as long as the caller keeps raw alive.
//
// Go has no borrow checker, so unlike the original Rust source this is a
// documented calling convention rather than a compile-time guarantee: at
// most one goroutine should drive a Doc at a time (spec §5).
type Doc struct {
	raw    []byte
	header blockfmt.Header
	buf    cursor.Buf
}

// FromRaw validates raw as a DTB (spec §4.1 checklist) and returns a Doc
// ready for decoding. raw is aliased, not copied; the caller must keep it
// alive and must not mutate it while any view derived from the Doc is live,
// beyond what the built-in views document as safe in-place caching.
func FromRaw(raw []byte) (*Doc, error) {
	if len(raw) == 0 {
		return nil, newErr(ErrKindHeaderTooShort, 0, blockfmt.ErrTruncated)
	}
	h, err := blockfmt.ParseHeader(raw)
	if err != nil {
		return nil, wrapHeaderErr(err)
	}
	d := &Doc{
		raw:    raw,
		header: h,
		buf: cursor.Buf{
			Structure:  raw[h.OffDtStruct : h.OffDtStruct+h.SizeDtStruct],
			Strings:    raw[h.OffDtStrings : h.OffDtStrings+h.SizeDtStrings],
			StructBase: int(h.OffDtStruct),
		},
	}
	return d, nil
}

// FromRawMut is an alias for FromRaw kept for API symmetry with spec §6
// ("the mutable variant is recommended"); in Go there is no separate
// read-only vs. mutable handle type, since aliasing is already explicit.
func FromRawMut(raw []byte) (*Doc, error) { return FromRaw(raw) }

// Header returns the validated DTB header.
func (d *Doc) Header() blockfmt.Header { return d.header }

// Root returns the cursor positioned at the implicit root node's contents
// (i.e. ready to read the root's properties and children), per spec §4.4.
func (d *Doc) Root() cursor.Body {
	_, body, err := cursor.Title{}.Split(&d.buf)
	if err != nil {
		// Root framing is guaranteed by FromRaw's header validation; a
		// failure here means the blob was mutated out from under the Doc.
		panic(err)
	}
	return body
}

// RootNode returns a generic Node view of the implicit root, for untyped
// props()/nodes() introspection (spec §4.5 "Generic node").
func (d *Doc) RootNode() Node { return nodeAt(d, cursor.Title{}) }

func (d *Doc) bufPtr() *cursor.Buf { return &d.buf }

func wrapHeaderErr(err error) *Error {
	var cf *blockfmt.CheckFailure
	if errors.As(err, &cf) {
		kind := ErrKindHeaderTooShort
		switch {
		case errors.Is(cf.Err, blockfmt.ErrBadMagic):
			kind = ErrKindInvalidMagic
		case errors.Is(cf.Err, blockfmt.ErrUnsupportedVersion):
			kind = ErrKindIncompatibleVersion
		case errors.Is(cf.Err, blockfmt.ErrOffsetOutOfRange):
			kind = ErrKindOffsetOutOfRange
		case errors.Is(cf.Err, blockfmt.ErrUnaligned):
			kind = ErrKindUnalignedInput
		case errors.Is(cf.Err, blockfmt.ErrBadRootName), errors.Is(cf.Err, blockfmt.ErrBadTrailer):
			kind = ErrKindExpectedStructBeginEnd
		case errors.Is(cf.Err, blockfmt.ErrTruncated):
			kind = ErrKindHeaderTooShort
		}
		e := newErr(kind, cf.Offset, cf.Err)
		e.Value = cf.Value
		return e
	}
	return newErr(ErrKindHeaderTooShort, 0, err)
}

func wrapCursorErr(err error) *Error {
	var ce *cursor.Error
	if errors.As(err, &ce) {
		kind := ErrKindCustom
		switch {
		case errors.Is(ce.Err, cursor.ErrEndOfTags):
			kind = ErrKindStructureOverflow
		case errors.Is(ce.Err, cursor.ErrInvalidTag):
			kind = ErrKindInvalidTag
		case errors.Is(ce.Err, cursor.ErrStringEOF):
			kind = ErrKindStringEOF
		case errors.Is(ce.Err, cursor.ErrSliceEOF):
			kind = ErrKindSliceEOF
		case errors.Is(ce.Err, cursor.ErrTableStringOffset):
			kind = ErrKindTableStringOffset
		}
		return newErr(kind, ce.Offset, ce.Err)
	}
	return newErr(ErrKindCustom, 0, err)
}
