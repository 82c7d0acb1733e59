// Package wasmhost runs compiled AssemblyScript test modules on wazero.
//
// Every compiled test file gets its own wazero runtime. Host functions are
// synthesized from the module's own import section: each import is bound by
// name to a host.Context operation, and imports the harness does not know
// are bound to a stub that fails the run when called. Instantiations of the
// same module share the runtime and are told apart by module name, which is
// how a host function finds the host.Context of its caller.
//
// Guest callables are function-table indices. They are invoked through a
// small synthesized trampoline module that imports the guest's exported
// table and performs a call_indirect.
package wasmhost

import (
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/host"
	"github.com/0xmhha/matchstick-go/internal/logger"
)

// Config holds configuration for the runtime
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Runtime loads test modules. Compiled code is cached across the modules it
// loads.
type Runtime struct {
	cfg    Config
	cache  wazero.CompilationCache
	logger *zap.Logger
}

// NewRuntime creates a runtime. log may be nil.
func NewRuntime(cfg Config, log *zap.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		cache:  wazero.NewCompilationCache(),
		logger: logger.WithComponent(log, "wasmhost"),
	}
}

func (r *Runtime) runtimeConfig() wazero.RuntimeConfig {
	cfg := wazero.NewRuntimeConfig().WithCompilationCache(r.cache)
	if r.cfg.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(r.cfg.MemoryLimitPages)
	}
	return cfg
}

// LoadFile reads and loads the wasm file at path
func (r *Runtime) LoadFile(ctx context.Context, name, path string, hostCfg host.Config) (*Module, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Something went wrong while trying to read `%s`: %w", path, err)
	}
	return r.Load(ctx, name, wasm, hostCfg)
}

// Load compiles wasm and binds its imports. Every instantiation of the
// returned module gets a fresh host.Context built from hostCfg.
func (r *Runtime) Load(ctx context.Context, name string, wasm []byte, hostCfg host.Config) (*Module, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, r.runtimeConfig())

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compile module %s: %w", name, err)
	}

	m := &Module{
		name:      name,
		runtime:   rt,
		compiled:  compiled,
		hostCfg:   hostCfg,
		logger:    r.logger.With(zap.String("module", name)),
		instances: make(map[string]*Instance),
	}
	if err := m.bindImports(ctx); err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return m, nil
}

// Close releases the compilation cache
func (r *Runtime) Close(ctx context.Context) error {
	return r.cache.Close(ctx)
}
