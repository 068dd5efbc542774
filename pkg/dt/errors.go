package dt

import "fmt"

// ErrKind classifies errors so callers can branch on intent rather than
// text, matching the taxonomy of spec §7.
type ErrKind int

const (
	ErrKindUnalignedInput ErrKind = iota
	ErrKindInvalidMagic
	ErrKindIncompatibleVersion
	ErrKindHeaderTooShort
	ErrKindOffsetOutOfRange
	ErrKindInvalidTag
	ErrKindStructureOverflow
	ErrKindStringEOF
	ErrKindSliceEOF
	ErrKindTableStringOffset
	ErrKindInvalidSerdeTypeLength
	ErrKindUTF8
	ErrKindExpectedStructBeginEnd
	ErrKindNotComplete
	ErrKindNotFound
	ErrKindPathConflict
	ErrKindCustom
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindUnalignedInput:
		return "unaligned input"
	case ErrKindInvalidMagic:
		return "invalid magic"
	case ErrKindIncompatibleVersion:
		return "incompatible version"
	case ErrKindHeaderTooShort:
		return "header too short"
	case ErrKindOffsetOutOfRange:
		return "offset out of range"
	case ErrKindInvalidTag:
		return "invalid tag id"
	case ErrKindStructureOverflow:
		return "structure u32-space overflow"
	case ErrKindStringEOF:
		return "string EOF unexpected"
	case ErrKindSliceEOF:
		return "slice EOF unexpected"
	case ErrKindTableStringOffset:
		return "table-string offset"
	case ErrKindInvalidSerdeTypeLength:
		return "invalid serde type length"
	case ErrKindUTF8:
		return "invalid UTF-8"
	case ErrKindExpectedStructBeginEnd:
		return "expected struct begin/end"
	case ErrKindNotComplete:
		return "deserialize not complete"
	case ErrKindNotFound:
		return "not found"
	case ErrKindPathConflict:
		return "conflicting patch paths"
	default:
		return "custom"
	}
}

// Error is the codec's single error type: a Kind, the byte offset at which
// it fired (0 means "before parsing began", per spec §7), and an optional
// wrapped cause. Errors are cheap to copy so peeking iterators can surface
// the same error repeatedly without redoing fallible work (spec §7
// "Propagation policy").
type Error struct {
	Kind   ErrKind
	Offset int
	Value  uint32 // offending value, when applicable (e.g. bad magic)
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg = e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("dt: %s at offset %d: %v", msg, e.Offset, e.Err)
	}
	return fmt.Sprintf("dt: %s at offset %d", msg, e.Offset)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind ErrKind, offset int, err error) *Error {
	return &Error{Kind: kind, Offset: offset, Err: err}
}
