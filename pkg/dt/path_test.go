package dt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

type pathLeaf struct {
	Compatible string `dt:"compatible"`
}

type pathSoc struct {
	Uart []dt.NodeSeqEntry `dt:"uart"`
}

type pathAliases struct {
	Serial0 string `dt:"serial0"`
}

type pathRoot struct {
	Soc     pathSoc     `dt:"soc"`
	Aliases pathAliases `dt:"aliases"`
}

func pathFixtureDoc(t *testing.T) *dt.Doc {
	t.Helper()
	in := pathRoot{
		Soc: pathSoc{
			Uart: []dt.NodeSeqEntry{
				{Unit: "10000000", Value: pathLeaf{Compatible: "acme,uart"}},
			},
		},
		Aliases: pathAliases{Serial0: "/soc/uart@10000000"},
	}
	raw, err := dt.Marshal(in, nil, dt.EncodeOptions{})
	require.NoError(t, err)
	doc, err := dt.FromRaw(raw)
	require.NoError(t, err)
	return doc
}

func TestResolveAbsolutePath(t *testing.T) {
	doc := pathFixtureDoc(t)
	node, err := doc.Resolve("/soc/uart@10000000")
	require.NoError(t, err)
	name, err := node.Name()
	require.NoError(t, err)
	assert.Equal(t, "uart@10000000", name)
}

func TestResolveBarePathViaAlias(t *testing.T) {
	doc := pathFixtureDoc(t)
	byAlias, err := doc.Resolve("serial0")
	require.NoError(t, err)
	byPath, err := doc.Resolve("/soc/uart@10000000")
	require.NoError(t, err)

	nameAlias, err := byAlias.Name()
	require.NoError(t, err)
	namePath, err := byPath.Name()
	require.NoError(t, err)
	assert.Equal(t, namePath, nameAlias)
}

func TestResolveMissingPathReturnsNotFound(t *testing.T) {
	doc := pathFixtureDoc(t)
	_, err := doc.Resolve("/soc/does-not-exist")
	require.Error(t, err)
	var derr *dt.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dt.ErrKindNotFound, derr.Kind)
}
