package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/storage"
	"github.com/0xmhha/matchstick-go/types"
)

// Fork is a fresh instantiation of the module under test, used to run
// ipfs.map callbacks against a copy of the current state
type Fork interface {
	// Host returns the context of the fork
	Host() *Context

	// CallExport invokes the exported function name with one decoded JSON
	// value and the caller's user data
	CallExport(ctx context.Context, name string, value interface{}, userData types.Value) error

	// Close releases the fork
	Close(ctx context.Context) error
}

// Forker creates forks of the module a Context belongs to
type Forker interface {
	Fork(ctx context.Context) (Fork, error)
}

// MockIPFSFile implements mockIpfsFile: hash resolves to the file at path
func (c *Context) MockIPFSFile(hash, path string) {
	c.ipfs[hash] = path
}

// IPFSCat implements ipfs.cat. An unknown hash or unreadable file is
// harness-fatal.
func (c *Context) IPFSCat(hash string) ([]byte, error) {
	path, ok := c.ipfs[hash]
	if !ok {
		return nil, types.Fatalf("IPFS file `%s` not found", hash)
	}
	return c.ReadFile(path)
}

// ReadFile implements readFile. A read failure is harness-fatal.
func (c *Context) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Fatalf("Failed to read file `%s` with error: %w", path, err)
	}
	return data, nil
}

// IPFSMap implements ipfs.map. The file behind link must hold a JSON array;
// callback runs once per element on a single fork. Before every call the
// global store, the call mocks and the data-source mocks are copied into the
// fork, and after it they are copied back.
func (c *Context) IPFSMap(ctx context.Context, link, callback string, userData types.Value) error {
	data, err := c.IPFSCat(link)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var values []interface{}
	if err := dec.Decode(&values); err != nil {
		return types.Fatalf("IPFS file `%s` is not a JSON array: %w", link, err)
	}

	if c.forker == nil {
		return types.Fatalf("ipfs.map is not available in this context")
	}
	fork, err := c.forker.Fork(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := fork.Close(ctx); err != nil {
			c.logger.Warn("failed to close ipfs.map fork", zap.Error(err))
		}
	}()

	for i, v := range values {
		c.copyTo(fork.Host())
		if err := fork.CallExport(ctx, callback, v, userData); err != nil {
			if types.IsFatal(err) {
				return err
			}
			return fmt.Errorf("Failed to handle callback '%s': %w", callback, err)
		}
		fork.Host().copyTo(c)
		c.logger.Debug("ipfs.map callback done", zap.String("callback", callback), zap.Int("element", i))
	}
	return nil
}

// copyTo copies the state an ipfs.map callback may observe or change
func (c *Context) copyTo(dst *Context) {
	dst.store.Restore(storage.Global, c.store.Snapshot(storage.Global))
	dst.calls.Restore(c.calls.Snapshot())
	dst.dataSource = c.dataSource.clone()
}
