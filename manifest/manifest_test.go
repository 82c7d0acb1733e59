package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/matchstick-go/templates"
	"github.com/0xmhha/matchstick-go/types"
)

func TestLoad(t *testing.T) {
	m, err := Load("testdata/subgraph.yaml")
	require.NoError(t, err)

	schemaPath, err := m.SchemaPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "schema.graphql"), schemaPath)

	require.Len(t, m.DataSources, 1)
	assert.Equal(t, "Gravity", m.DataSources[0].Name)
	assert.Equal(t, "mainnet", m.DataSources[0].Network)
}

func TestHandlers(t *testing.T) {
	m, err := Load("testdata/subgraph.yaml")
	require.NoError(t, err)

	handlers := m.Handlers()
	assert.Equal(t, []string{"handleNewGravatar", "handleUpdatedGravatar", "handleCreateGravatar"}, handlers["Gravity"])
	assert.Equal(t, []string{"handleTokensReleased"}, handlers["GraphTokenLockWallet"])
	assert.Empty(t, handlers["GravatarMetadata"])
	assert.Len(t, handlers, 4)
}

func TestTemplateDefs(t *testing.T) {
	m, err := Load("testdata/subgraph.yaml")
	require.NoError(t, err)

	assert.Equal(t, []templates.Definition{
		{Name: "GraphTokenLockWallet", Kind: "ethereum/contract"},
		{Name: "GravatarMetadata", Kind: "file/ipfs"},
		{Name: "Unsupported", Kind: "substreams"},
	}, m.TemplateDefs())
}

func TestMappingFiles(t *testing.T) {
	m, err := Load("testdata/subgraph.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "src", "gravity.ts"),
		filepath.Join("testdata", "src", "metadata.ts"),
		filepath.Join("testdata", "src", "other.ts"),
	}, m.MappingFiles())
}

func TestLoadMissingIsFatal(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
}

func TestParseInvalid(t *testing.T) {
	m, err := Parse("subgraph.yaml", []byte("dataSources: [unclosed"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidManifest)
	require.NotNil(t, m)
	assert.Empty(t, m.Sources())

	_, err = m.SchemaPath()
	assert.True(t, types.IsFatal(err))
}
