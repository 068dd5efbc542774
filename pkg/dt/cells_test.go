package dt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

// #address-cells/#size-cells are scoped to a node's own subtree: a child
// overriding them must not affect its siblings, and must not leak back up
// to a parent that never set them (spec §4.4 step 3, §8).

type leafA struct {
	Reg dt.Reg `dt:"reg"`
}

type nodeA struct {
	AddressCells uint32 `dt:"#address-cells"`
	SizeCells    uint32 `dt:"#size-cells"`
	B            leafA  `dt:"b"`
}

type nodeC struct {
	Reg dt.Reg `dt:"reg"`
}

type cellsRoot struct {
	A nodeA `dt:"a"`
	C nodeC `dt:"c"`
}

func TestAddressSizeCellsDoNotInherit(t *testing.T) {
	in := cellsRoot{
		A: nodeA{
			AddressCells: 1,
			SizeCells:    0,
			B:            leafA{Reg: mustReg(regBytes(1, 0, 0x1000, 0), 1, 0)},
		},
		C: nodeC{Reg: mustReg(regBytes(2, 1, 0x2000, 0x10), 2, 1)},
	}
	raw, err := dt.Marshal(in, nil, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)

	var out cellsRoot
	require.NoError(t, dt.Unmarshal(doc, &out))

	// b inherits a's overridden address-cells=1, size-cells=0: a single
	// one-word base entry.
	require.Equal(t, 1, out.A.B.Reg.Len())
	eb, ok := out.A.B.Reg.Iter().Next()
	require.True(t, ok)
	assert.EqualValues(t, 0x1000, eb.Base)
	assert.EqualValues(t, 0, eb.Length)

	// c is a's sibling under the implicit root, which never declared
	// #address-cells/#size-cells, so it keeps the default 2/1 regardless of
	// what a declared for its own subtree.
	require.Equal(t, 1, out.C.Reg.Len())
	ec, ok := out.C.Reg.Iter().Next()
	require.True(t, ok)
	assert.EqualValues(t, 0x2000, ec.Base)
	assert.EqualValues(t, 0x10, ec.Length)
}
