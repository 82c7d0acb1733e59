package wasmhost

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/host"
	"github.com/0xmhha/matchstick-go/suite"
	"github.com/0xmhha/matchstick-go/types"
)

// Instance is one instantiation of a Module. It implements suite.Instance,
// host.Forker and host.Fork.
type Instance struct {
	name       string
	module     *Module
	host       *host.Context
	guest      api.Module
	trampoline api.Module
	invoke     api.Function
	tableSize  api.Function
	heap       *heap

	// fatal is the first harness-fatal error raised by a host function
	// during the current guest call
	fatal error
}

// Host implements host.Fork
func (i *Instance) Host() *host.Context { return i.host }

// Registrations implements suite.Instance
func (i *Instance) Registrations() []suite.Registration {
	return i.host.Registrations()
}

// Callable implements suite.Instance. An index outside the table is
// harness-fatal, and so is calling an entry that is null or not a test
// function.
func (i *Instance) Callable(ctx context.Context, funcIndex uint32) (suite.Callable, error) {
	res, err := i.tableSize.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table size: %w", err)
	}
	if funcIndex >= api.DecodeU32(res[0]) {
		return nil, types.Fatalf("Could not get WebAssembly.Table entry with index '%d'.", funcIndex)
	}

	return suite.CallableFunc(func(ctx context.Context) error {
		_, err := i.call(ctx, i.invoke, uint64(funcIndex))
		if err != nil && !types.IsFatal(err) && isTableError(err) {
			return types.Fatalf("Could not get WebAssembly.Table entry with index '%d': %w", funcIndex, err)
		}
		return err
	}), nil
}

func isTableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid table access") || strings.Contains(msg, "indirect call type mismatch")
}

// call invokes fn. A harness-fatal error recorded by a host function during
// the call takes precedence over the trap it caused.
func (i *Instance) call(ctx context.Context, fn api.Function, params ...uint64) ([]uint64, error) {
	i.fatal = nil
	res, err := fn.Call(ctx, params...)
	if i.fatal != nil {
		fatal := i.fatal
		i.fatal = nil
		return nil, fatal
	}
	return res, err
}

func (i *Instance) record(err error) {
	if types.IsFatal(err) && i.fatal == nil {
		i.fatal = err
	}
}

// Fork implements host.Forker
func (i *Instance) Fork(ctx context.Context) (host.Fork, error) {
	return i.module.instantiate(ctx)
}

// CallExport implements host.Fork: it calls the exported function name with
// value as a JSONValue and userData as a store Value
func (i *Instance) CallExport(ctx context.Context, name string, value interface{}, userData types.Value) error {
	fn := i.guest.ExportedFunction(name)
	if fn == nil {
		return fmt.Errorf("function %s not found", name)
	}

	valuePtr, err := i.heap.writeJSON(ctx, value)
	if err != nil {
		return err
	}
	dataPtr, err := i.heap.writeStoreValue(ctx, userData)
	if err != nil {
		return err
	}

	_, err = i.call(ctx, fn, uint64(valuePtr), uint64(dataPtr))
	return err
}

// Close implements suite.Instance
func (i *Instance) Close(ctx context.Context) error {
	delete(i.module.instances, i.name)

	var firstErr error
	if i.trampoline != nil {
		firstErr = i.trampoline.Close(ctx)
	}
	if i.guest != nil {
		if err := i.guest.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	i.module.logger.Debug("closed", zap.String("instance", i.name))
	return firstErr
}
