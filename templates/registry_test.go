package templates

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/types"
)

func newRegistry(t *testing.T) (*Registry, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	r := New([]Definition{
		{Name: "Pool", Kind: "ethereum/contract"},
		{Name: "Metadata", Kind: "file/ipfs"},
		{Name: "Arweave", Kind: "file/arweave"},
	}, logger.NewConsole(&buf, false))
	return r, &buf
}

func TestNewSkipsUnsupportedKinds(t *testing.T) {
	r, buf := newRegistry(t)

	assert.Equal(t, []string{"Pool", "Metadata"}, r.Names())
	assert.False(t, r.Has("Arweave"))
	assert.Contains(t, buf.String(), "Template with kind `file/arweave` is not supported by matchstick.")

	kind, ok := r.Kind("Metadata")
	require.True(t, ok)
	assert.Equal(t, "file/ipfs", kind)
}

func TestCreate(t *testing.T) {
	r, _ := newRegistry(t)

	n, ok := r.Count("Pool")
	require.True(t, ok)
	assert.Equal(t, 0, n)

	require.NoError(t, r.Create("Pool", []string{"0xaa"}, nil))
	require.NoError(t, r.Create("Pool", []string{"0xbb"}, types.Entity{"fee": types.Int(3)}))

	n, _ = r.Count("Pool")
	assert.Equal(t, 2, n)

	exists, ok := r.Exists("Pool", "0xbb")
	assert.True(t, ok)
	assert.True(t, exists)

	exists, ok = r.Exists("Pool", "0xcc")
	assert.True(t, ok)
	assert.False(t, exists)

	instances, ok := r.Instances("Pool")
	require.True(t, ok)
	require.Len(t, instances, 2)
	assert.Equal(t, "0xaa", instances[0].Key)
	assert.Equal(t, "ethereum/contract", instances[1].Kind)
	assert.Equal(t, "3", instances[1].Context["fee"].String())
}

func TestCreateOverwritesSameKey(t *testing.T) {
	r, _ := newRegistry(t)

	require.NoError(t, r.Create("Pool", []string{"0xaa"}, types.Entity{"v": types.Int(1)}))
	require.NoError(t, r.Create("Pool", []string{"0xaa"}, types.Entity{"v": types.Int(2)}))

	instances, _ := r.Instances("Pool")
	require.Len(t, instances, 1)
	assert.Equal(t, "2", instances[0].Context["v"].String())
}

func TestCreateUnknownTemplateIsFatal(t *testing.T) {
	r, _ := newRegistry(t)

	err := r.Create("Vault", []string{"0xaa"}, nil)
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Contains(t, err.Error(), "Available names: Pool, Metadata.")
}

func TestCreateRequiresKey(t *testing.T) {
	r, _ := newRegistry(t)
	err := r.Create("Pool", nil, nil)
	require.Error(t, err)
	assert.False(t, types.IsFatal(err))
}

func TestUnknownTemplateLookups(t *testing.T) {
	r, _ := newRegistry(t)

	_, ok := r.Count("Vault")
	assert.False(t, ok)
	_, ok = r.Exists("Vault", "0xaa")
	assert.False(t, ok)
	_, ok = r.Instances("Vault")
	assert.False(t, ok)
}
