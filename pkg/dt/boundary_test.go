package dt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

func TestMarshalUnmarshalEmptyRoot(t *testing.T) {
	raw, err := dt.Marshal(struct{}{}, nil, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)

	var out struct{}
	require.NoError(t, dt.Unmarshal(doc, &out))

	root := doc.RootNode()
	name, err := root.Name()
	require.NoError(t, err)
	assert.Equal(t, "", name)

	_, ok, err := root.Props().Next()
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = root.Nodes().Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarshalUnmarshalEmptyRootMap(t *testing.T) {
	raw, err := dt.Marshal(map[string]any{}, nil, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)

	out := map[string]any{}
	require.NoError(t, dt.Unmarshal(doc, &out))
	assert.Empty(t, out)
}

func TestMarshalOmitsFalseBool(t *testing.T) {
	type withFlag struct {
		Ranges bool `dt:"ranges"`
	}
	raw, err := dt.Marshal(withFlag{Ranges: false}, nil, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)
	_, err = doc.RootNode().GetProp("ranges")
	require.Error(t, err)
	var derr *dt.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dt.ErrKindNotFound, derr.Kind)
}

func TestMarshalUnmarshalZeroLengthBoolProp(t *testing.T) {
	type withFlag struct {
		Ranges bool `dt:"ranges"`
	}
	raw, err := dt.Marshal(withFlag{Ranges: true}, nil, dt.EncodeOptions{})
	require.NoError(t, err)

	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)

	val, err := doc.RootNode().GetProp("ranges")
	require.NoError(t, err)
	assert.Empty(t, val)

	var out withFlag
	require.NoError(t, dt.Unmarshal(doc, &out))
	assert.True(t, out.Ranges)
}
