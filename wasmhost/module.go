package wasmhost

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/host"
	"github.com/0xmhha/matchstick-go/suite"
	"github.com/0xmhha/matchstick-go/types"
)

// Module is one compiled test file. It implements suite.Module.
// It is not safe for concurrent use.
type Module struct {
	name     string
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	hostCfg  host.Config
	logger   *zap.Logger

	seq       int
	instances map[string]*Instance
}

// Name returns the suite name of the module
func (m *Module) Name() string { return m.name }

// bindImports instantiates one host module per import module name, binding
// every imported function by name
func (m *Module) bindImports(ctx context.Context) error {
	byModule := make(map[string][]api.FunctionDefinition)
	var order []string
	for _, def := range m.compiled.ImportedFunctions() {
		modName, _, _ := def.Import()
		if _, ok := byModule[modName]; !ok {
			order = append(order, modName)
		}
		byModule[modName] = append(byModule[modName], def)
	}

	for _, modName := range order {
		builder := m.runtime.NewHostModuleBuilder(modName)
		exported := make(map[string]bool)

		for _, def := range byModule[modName] {
			_, name, _ := def.Import()
			if exported[name] {
				continue
			}
			exported[name] = true

			fn, ok := hostFuncs[name]
			if !ok {
				m.logger.Debug("binding unsupported import", zap.String("import", modName+"."+name))
				fn = unsupported(modName, name)
			}
			builder.NewFunctionBuilder().
				WithGoModuleFunction(m.bind(fn, len(def.ResultTypes()) > 0), def.ParamTypes(), def.ResultTypes()).
				Export(name)
		}

		if _, err := builder.Instantiate(ctx); err != nil {
			return fmt.Errorf("instantiate host module %s: %w", modName, err)
		}
	}
	return nil
}

// bind adapts fn to wazero. A host error is recorded on the calling
// instance and then raised as a trap.
func (m *Module) bind(fn hostFunc, hasResult bool) api.GoModuleFunc {
	return func(ctx context.Context, caller api.Module, stack []uint64) {
		inst, ok := m.instances[caller.Name()]
		if !ok {
			panic(types.Fatalf("host function called from unknown instance %q", caller.Name()))
		}
		ret, err := fn(ctx, inst, stack)
		if err != nil {
			inst.record(err)
			panic(err)
		}
		if hasResult {
			stack[0] = ret
		}
	}
}

// Instantiate implements suite.Module: it creates a fresh instance with its
// own host context and runs the module's top-level code.
func (m *Module) Instantiate(ctx context.Context) (suite.Instance, error) {
	return m.instantiate(ctx)
}

func (m *Module) instantiate(ctx context.Context) (*Instance, error) {
	m.seq++
	name := fmt.Sprintf("%s#%d", m.name, m.seq)

	inst := &Instance{
		name:   name,
		module: m,
		host:   host.New(m.hostCfg, m.logger),
	}
	inst.host.SetForker(inst)
	m.instances[name] = inst

	guest, err := m.runtime.InstantiateModule(ctx, m.compiled,
		wazero.NewModuleConfig().WithName(name).WithStartFunctions())
	if err != nil {
		delete(m.instances, name)
		return nil, fmt.Errorf("Could not create WasmInstance for %s: %w", m.name, err)
	}
	inst.guest = guest
	inst.heap = newHeap(guest)

	trampoline, err := m.runtime.InstantiateWithConfig(ctx, trampolineModule(name),
		wazero.NewModuleConfig().WithName(name+".invoke"))
	if err != nil {
		_ = inst.Close(ctx)
		return nil, fmt.Errorf("module %s must export its function table (compile with --exportTable): %w", m.name, err)
	}
	inst.trampoline = trampoline
	inst.invoke = trampoline.ExportedFunction(trampolineInvoke)
	inst.tableSize = trampoline.ExportedFunction(trampolineSize)

	if start := guest.ExportedFunction("_start"); start != nil {
		if _, err := inst.call(ctx, start); err != nil {
			_ = inst.Close(ctx)
			return nil, fmt.Errorf("running top-level code of %s: %w", m.name, err)
		}
	}

	m.logger.Debug("instantiated", zap.String("instance", name))
	return inst, nil
}

// Close releases the module's runtime and every instance still open
func (m *Module) Close(ctx context.Context) error {
	m.instances = make(map[string]*Instance)
	return m.runtime.Close(ctx)
}
