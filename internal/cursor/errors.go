package cursor

import "errors"

var (
	// ErrEndOfTags indicates the structure block ran out before a full word could be read.
	ErrEndOfTags = errors.New("cursor: end of tags")
	// ErrInvalidTag indicates a structure-block word was not one of the five known tokens.
	ErrInvalidTag = errors.New("cursor: invalid tag")
	// ErrStringEOF indicates a name scan ran past the end of its slice without a NUL.
	ErrStringEOF = errors.New("cursor: unterminated string")
	// ErrSliceEOF indicates a PROP value extends past the structure slice.
	ErrSliceEOF = errors.New("cursor: prop value extends past structure block")
	// ErrTableStringOffset indicates a PROP name offset does not land inside the string block
	// or lacks a terminator.
	ErrTableStringOffset = errors.New("cursor: string-table offset out of range")
)
