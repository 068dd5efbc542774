package blockfmt_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtbkit/dtbkit/internal/blockfmt"
)

// minimalBlob builds the smallest well-formed DTB: empty root, no
// properties, no children, no reserved-memory entries.
func minimalBlob(t *testing.T) []byte {
	t.Helper()
	structure := make([]byte, 0, 16)
	structure = binary.BigEndian.AppendUint32(structure, blockfmt.TokenBeginNode)
	structure = append(structure, 0, 0, 0, 0) // empty name + padding
	structure = binary.BigEndian.AppendUint32(structure, blockfmt.TokenEndNode)
	structure = binary.BigEndian.AppendUint32(structure, blockfmt.TokenEnd)

	rsvmap := make([]byte, blockfmt.RsvMapEntrySize)

	h := blockfmt.Header{
		Magic:           blockfmt.Magic,
		Version:         17,
		LastCompVersion: 16,
		OffMemRsvmap:    blockfmt.HeaderSize,
		OffDtStruct:     uint32(blockfmt.HeaderSize + len(rsvmap)),
		SizeDtStruct:    uint32(len(structure)),
	}
	h.OffDtStrings = h.OffDtStruct + h.SizeDtStruct
	h.SizeDtStrings = 0
	h.TotalSize = h.OffDtStrings + h.SizeDtStrings

	out := append([]byte{}, blockfmt.EncodeHeader(h)...)
	out = append(out, rsvmap...)
	out = append(out, structure...)
	return out
}

func TestParseHeaderRoundTrip(t *testing.T) {
	blob := minimalBlob(t)
	h, err := blockfmt.ParseHeader(blob)
	require.NoError(t, err)
	assert.Equal(t, blockfmt.Magic, h.Magic)
	assert.Equal(t, uint32(17), h.Version)
	assert.EqualValues(t, len(blob), h.TotalSize)

	reencoded := blockfmt.EncodeHeader(h)
	assert.Equal(t, blob[:blockfmt.HeaderSize], reencoded)
}

func TestParseHeaderBadMagic(t *testing.T) {
	blob := minimalBlob(t)
	binary.BigEndian.PutUint32(blob[0:4], 0xBAADF00D)
	_, err := blockfmt.ParseHeader(blob)
	require.Error(t, err)
	var cf *blockfmt.CheckFailure
	require.ErrorAs(t, err, &cf)
	assert.ErrorIs(t, cf.Err, blockfmt.ErrBadMagic)
}

func TestParseHeaderUnsupportedVersion(t *testing.T) {
	blob := minimalBlob(t)
	binary.BigEndian.PutUint32(blob[6*blockfmt.BlockLen:7*blockfmt.BlockLen], blockfmt.MaxSupportedLastCompVersion+1)
	_, err := blockfmt.ParseHeader(blob)
	var cf *blockfmt.CheckFailure
	require.ErrorAs(t, err, &cf)
	assert.ErrorIs(t, cf.Err, blockfmt.ErrUnsupportedVersion)
}

func TestParseHeaderTruncated(t *testing.T) {
	blob := minimalBlob(t)
	_, err := blockfmt.ParseHeader(blob[:blockfmt.HeaderSize-1])
	var cf *blockfmt.CheckFailure
	require.ErrorAs(t, err, &cf)
	assert.ErrorIs(t, cf.Err, blockfmt.ErrTruncated)
}

func TestParseHeaderOffsetOutOfRange(t *testing.T) {
	blob := minimalBlob(t)
	binary.BigEndian.PutUint32(blob[2*blockfmt.BlockLen:3*blockfmt.BlockLen], uint32(len(blob)+100))
	_, err := blockfmt.ParseHeader(blob)
	var cf *blockfmt.CheckFailure
	require.ErrorAs(t, err, &cf)
	assert.ErrorIs(t, cf.Err, blockfmt.ErrOffsetOutOfRange)
}

func TestParseHeaderBadRootName(t *testing.T) {
	blob := minimalBlob(t)
	structOff := blockfmt.HeaderSize + blockfmt.RsvMapEntrySize
	blob[structOff+4] = 'x' // root name's first byte is no longer NUL
	_, err := blockfmt.ParseHeader(blob)
	var cf *blockfmt.CheckFailure
	require.ErrorAs(t, err, &cf)
	assert.ErrorIs(t, cf.Err, blockfmt.ErrBadRootName)
}

func TestParseHeaderBadTrailer(t *testing.T) {
	blob := minimalBlob(t)
	last := len(blob) - blockfmt.BlockLen
	binary.BigEndian.PutUint32(blob[last:], blockfmt.TokenBeginNode) // corrupt terminal END
	_, err := blockfmt.ParseHeader(blob)
	var cf *blockfmt.CheckFailure
	require.ErrorAs(t, err, &cf)
	assert.ErrorIs(t, cf.Err, blockfmt.ErrBadTrailer)
}

func TestAlign4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 4, 3: 4, 4: 4, 5: 8}
	for in, want := range cases {
		assert.Equal(t, want, blockfmt.Align4(in))
	}
}
