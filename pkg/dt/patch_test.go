package dt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

type patchUart struct {
	Status string `dt:"status"`
}

type patchSoc struct {
	Uart []dt.NodeSeqEntry `dt:"uart"`
}

type patchRoot struct {
	Model string   `dt:"model"`
	Soc   patchSoc `dt:"soc"`
}

func patchFixture() patchRoot {
	return patchRoot{
		Model: "acme,board",
		Soc: patchSoc{
			Uart: []dt.NodeSeqEntry{
				{Unit: "0", Value: patchUart{Status: "okay"}},
			},
		},
	}
}

func TestPatchOverwritesExistingProp(t *testing.T) {
	patches := []dt.Patch{
		{Path: "/soc/uart@0/status", Kind: dt.PatchProp, Value: append([]byte("disabled"), 0)},
	}
	raw, err := dt.Marshal(patchFixture(), patches, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)
	node, err := doc.Resolve("/soc/uart@0")
	require.NoError(t, err)
	val, err := node.GetProp("status")
	require.NoError(t, err)
	assert.Equal(t, "disabled\x00", string(val))
}

func TestPatchInsertsNewProp(t *testing.T) {
	patches := []dt.Patch{
		{Path: "/soc/uart@0/clock-frequency", Kind: dt.PatchProp, Value: []byte{0, 0, 0, 42}},
	}
	raw, err := dt.Marshal(patchFixture(), patches, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)
	node, err := doc.Resolve("/soc/uart@0")
	require.NoError(t, err)

	status, err := node.GetProp("status")
	require.NoError(t, err)
	assert.Equal(t, "okay\x00", string(status))

	freq, err := node.GetProp("clock-frequency")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 42}, freq)
}

func TestPatchInsertsNewNode(t *testing.T) {
	// Two properties, one of them ("status") sharing a name already interned
	// by the outer document's natural fields: this exposes a stale-offset
	// bug if the inserted node's props were ever resolved against anything
	// other than the enclosing document's own string table.
	patches := []dt.Patch{
		{Path: "/soc/gpio", Kind: dt.PatchNode, Value: map[string]any{
			"compatible": append([]byte("acme,gpio"), 0),
			"status":     append([]byte("okay"), 0),
		}},
	}
	raw, err := dt.Marshal(patchFixture(), patches, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)
	node, err := doc.Resolve("/soc/gpio")
	require.NoError(t, err)

	compatible, err := node.GetProp("compatible")
	require.NoError(t, err)
	assert.Equal(t, "acme,gpio\x00", string(compatible))

	status, err := node.GetProp("status")
	require.NoError(t, err)
	assert.Equal(t, "okay\x00", string(status))
}

func TestPatchConflictingPathsError(t *testing.T) {
	patches := []dt.Patch{
		{Path: "/soc/uart@0/status", Kind: dt.PatchProp, Value: []byte("a\x00")},
		{Path: "/soc/uart@0/status", Kind: dt.PatchProp, Value: []byte("b\x00")},
	}
	_, err := dt.Marshal(patchFixture(), patches, dt.EncodeOptions{})
	require.Error(t, err)
	var derr *dt.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dt.ErrKindPathConflict, derr.Kind)
}
