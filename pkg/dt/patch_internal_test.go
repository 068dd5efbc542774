package dt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"soc", "uart@0", "status"}, splitPath("/soc/uart@0/status"))
	assert.Nil(t, splitPath("/"))
	assert.Nil(t, splitPath(""))
}

func TestMatchFieldFiresAtFinalComponent(t *testing.T) {
	active := newActivePatches([]Patch{{Path: "/soc/status", Kind: PatchProp, Value: []byte("x")}})

	passDown, consumed, firing, err := matchField(active, 0, "soc")
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Nil(t, firing)
	require.Len(t, passDown, 1)

	_, consumed, firing, err = matchField(passDown, 1, "status")
	require.NoError(t, err)
	assert.True(t, consumed)
	require.NotNil(t, firing)
	assert.Equal(t, "x", string(firing.Value.([]byte)))
}

func TestMatchFieldIgnoresNonMatchingKey(t *testing.T) {
	active := newActivePatches([]Patch{{Path: "/soc/status", Kind: PatchProp}})
	passDown, consumed, firing, err := matchField(active, 0, "aliases")
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.Nil(t, firing)
	assert.Empty(t, passDown)
}

func TestMatchFieldReturnsConflictOnDoubleFire(t *testing.T) {
	active := newActivePatches([]Patch{
		{Path: "/soc/status", Kind: PatchProp, Value: []byte("a")},
		{Path: "/soc/status", Kind: PatchProp, Value: []byte("b")},
	})
	passDown, _, _, err := matchField(active, 0, "soc")
	require.NoError(t, err)

	_, _, _, err = matchField(passDown, 1, "status")
	require.Error(t, err)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ErrKindPathConflict, derr.Kind)
}

func TestInsertionsReturnsUnconsumedLeafPatches(t *testing.T) {
	active := newActivePatches([]Patch{{Path: "/soc/clock-frequency", Kind: PatchProp, Value: []byte{0, 0, 0, 1}}})
	passDown, consumed, firing, err := matchField(active, 0, "soc")
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.Nil(t, firing)

	ins := insertions(passDown, 1, map[string]bool{})
	require.Len(t, ins, 1)
	assert.Equal(t, "clock-frequency", ins[0].segments[1])
}

func TestInsertionsSkipsConsumedKeys(t *testing.T) {
	active := newActivePatches([]Patch{{Path: "/soc", Kind: PatchProp}})
	ins := insertions(active, 0, map[string]bool{"soc": true})
	assert.Empty(t, ins)
}

func TestInsertionsSkipsNonLeafDepth(t *testing.T) {
	active := newActivePatches([]Patch{{Path: "/soc/uart@0/status", Kind: PatchProp}})
	ins := insertions(active, 0, map[string]bool{})
	assert.Empty(t, ins)
}
