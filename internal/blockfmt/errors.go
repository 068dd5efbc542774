package blockfmt

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("blockfmt: truncated buffer")
	// ErrBadMagic indicates the header magic did not match Magic.
	ErrBadMagic = errors.New("blockfmt: bad magic")
	// ErrUnsupportedVersion indicates last_comp_version exceeds what this codec accepts.
	ErrUnsupportedVersion = errors.New("blockfmt: unsupported last_comp_version")
	// ErrOffsetOutOfRange indicates a header offset/size field falls outside the blob.
	ErrOffsetOutOfRange = errors.New("blockfmt: offset out of range")
	// ErrUnaligned indicates the caller's buffer is not machine-word aligned.
	ErrUnaligned = errors.New("blockfmt: unaligned buffer")
	// ErrBadRootName indicates the root BEGIN_NODE was followed by a non-empty name.
	ErrBadRootName = errors.New("blockfmt: root node has non-empty name")
	// ErrBadTrailer indicates the structure block's root framing is wrong: its first word is not
	// BEGIN_NODE, or its last two non-NOP words are not END_NODE, END.
	ErrBadTrailer = errors.New("blockfmt: structure block missing END_NODE/END trailer")
)
