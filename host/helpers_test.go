package host

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/schema"
	"github.com/0xmhha/matchstick-go/templates"
	"github.com/0xmhha/matchstick-go/types"
)

const testSchema = `
type Gravatar @entity {
  id: ID!
  owner: Bytes!
  displayName: String
  tags: [Tag!]! @derivedFrom(field: "gravatar")
}

type Tag @entity {
  id: ID!
  gravatar: Gravatar!
}
`

func newTestConfig(t *testing.T) (Config, *bytes.Buffer) {
	t.Helper()
	idx, err := schema.Parse("schema.graphql", testSchema)
	require.NoError(t, err)

	var out bytes.Buffer
	return Config{
		Schema: idx,
		Templates: []templates.Definition{
			{Name: "GraphTokenLockWallet", Kind: "ethereum/contract"},
			{Name: "GravatarMetadata", Kind: "file/ipfs"},
		},
		Console: logger.NewConsole(&out, false),
	}, &out
}

func newTestContext(t *testing.T) (*Context, *bytes.Buffer) {
	t.Helper()
	cfg, out := newTestConfig(t)
	return New(cfg, nil), out
}

func gravatar(id, name string) types.Entity {
	return types.Entity{
		"id":          types.String(id),
		"owner":       types.Bytes([]byte{0x12, 0x34}),
		"displayName": types.String(name),
	}
}

// scriptedFork runs Go callbacks in place of guest exports
type scriptedFork struct {
	host      *Context
	callbacks map[string]func(c *Context, value interface{}, userData types.Value) error
	closed    bool
}

func (f *scriptedFork) Host() *Context { return f.host }

func (f *scriptedFork) CallExport(ctx context.Context, name string, value interface{}, userData types.Value) error {
	cb, ok := f.callbacks[name]
	if !ok {
		return fmt.Errorf("function %s not found", name)
	}
	return cb(f.host, value, userData)
}

func (f *scriptedFork) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

type scriptedForker struct {
	cfg   Config
	forks []*scriptedFork
	cbs   map[string]func(c *Context, value interface{}, userData types.Value) error
}

func (f *scriptedForker) Fork(ctx context.Context) (Fork, error) {
	fork := &scriptedFork{host: New(f.cfg, nil), callbacks: f.cbs}
	f.forks = append(f.forks, fork)
	return fork, nil
}
