// Package blockfmt houses low-level decoders for the Devicetree Blob (DTB)
// binary format. The goal is to keep the parsing focused, allocation-free,
// and independent from the public API so higher-level packages (pkg/dt) can
// orchestrate the data in a more ergonomic form.
package blockfmt

// BlockLen is the size in bytes of one structure-block word. Every token,
// length, and offset in the structure block is one BlockLen-wide big-endian
// word, and all variable-length fields are padded up to a BlockLen boundary.
const BlockLen = 4

// HeaderWords is the number of big-endian uint32 words in the fixed DTB
// header (see spec §3 "Header").
const HeaderWords = 10

// HeaderSize is the byte size of the fixed DTB header.
const HeaderSize = HeaderWords * BlockLen

// Magic is the required value of the first header word.
const Magic uint32 = 0xD00DFEED

// MaxSupportedLastCompVersion is the highest last_comp_version this codec
// accepts (spec §3 invariant 1, §7 "Incompatible version").
const MaxSupportedLastCompVersion = 17

// RsvMapEntrySize is the byte size of one (address, size) memory reservation
// entry, including the all-zero sentinel that terminates the map.
const RsvMapEntrySize = 16

// Structure-block token values (spec §3 "Structure tokens").
const (
	TokenBeginNode uint32 = 1
	TokenEndNode   uint32 = 2
	TokenProp      uint32 = 3
	TokenNop       uint32 = 4
	TokenEnd       uint32 = 9
)

// Align4 rounds n up to the next multiple of BlockLen.
func Align4(n int) int {
	return (n + BlockLen - 1) &^ (BlockLen - 1)
}
