package dt_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

func TestRegIterArithmetic(t *testing.T) {
	// Two (address,size) pairs at address-cells=2, size-cells=1: 12 bytes each.
	data := make([]byte, 0, 24)
	data = binary.BigEndian.AppendUint32(data, 0)          // base hi
	data = binary.BigEndian.AppendUint32(data, 0x10000000) // base lo
	data = binary.BigEndian.AppendUint32(data, 0x1000)     // size
	data = binary.BigEndian.AppendUint32(data, 0)
	data = binary.BigEndian.AppendUint32(data, 0x20000000)
	data = binary.BigEndian.AppendUint32(data, 0x2000)

	reg, err := dt.NewReg(data, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	it := reg.Iter()
	e1, ok := it.Next()
	require.True(t, ok)
	assert.EqualValues(t, 0x10000000, e1.Base)
	assert.EqualValues(t, 0x1000, e1.Length)

	e2, ok := it.Next()
	require.True(t, ok)
	assert.EqualValues(t, 0x20000000, e2.Base)
	assert.EqualValues(t, 0x2000, e2.Length)

	_, ok = it.Next()
	assert.False(t, ok)
}

func TestRegRejectsZeroAddressCells(t *testing.T) {
	_, err := dt.NewReg(nil, 0, 1)
	require.Error(t, err)
}

func TestMatrixRows(t *testing.T) {
	data := make([]byte, 0, 16)
	for i := uint32(1); i <= 4; i++ {
		data = binary.BigEndian.AppendUint32(data, i)
	}
	m, err := dt.NewMatrix(data, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())

	row := make([]uint32, 2)
	m.Row(0, row)
	assert.Equal(t, []uint32{1, 2}, row)
	m.Row(1, row)
	assert.Equal(t, []uint32{3, 4}, row)
}

func TestMatrixRejectsMisalignedLength(t *testing.T) {
	_, err := dt.NewMatrix([]byte{1, 2, 3}, 2)
	require.Error(t, err)
}

func TestStrSeqIter(t *testing.T) {
	data := []byte("one\x00two\x00three\x00")
	seq := dt.NewStrSeq(data)
	it := seq.Iter()

	var got []string
	for {
		s, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, s)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestStrSeqIterEmpty(t *testing.T) {
	it := dt.NewStrSeq(nil).Iter()
	_, ok := it.Next()
	assert.False(t, ok)
}
