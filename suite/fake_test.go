package suite

import (
	"context"
	"errors"

	"github.com/0xmhha/matchstick-go/types"
)

// fakeFunc is a guest function of a fakeModule: calling it records label in
// the module trace, appends registers to the instance and returns err
type fakeFunc struct {
	label     string
	registers []Registration
	err       error
}

// fakeModule stands in for a compiled test module. Instantiating it runs
// the top-level registrations in init.
type fakeModule struct {
	init      []Registration
	funcs     map[uint32]fakeFunc
	trace     []string
	instances int
	closed    int
	closeErr  error
	// resolvedWith records the context each Callable lookup received
	resolvedWith []context.Context
}

func (m *fakeModule) Instantiate(ctx context.Context) (Instance, error) {
	m.instances++
	return &fakeInstance{module: m, regs: append([]Registration(nil), m.init...)}, nil
}

type fakeInstance struct {
	module *fakeModule
	regs   []Registration
}

func (i *fakeInstance) Registrations() []Registration {
	return append([]Registration(nil), i.regs...)
}

func (i *fakeInstance) Callable(ctx context.Context, idx uint32) (Callable, error) {
	i.module.resolvedWith = append(i.module.resolvedWith, ctx)
	f, ok := i.module.funcs[idx]
	if !ok {
		return nil, types.Fatalf("Could not get WebAssembly.Table entry with index '%d'.", idx)
	}
	return CallableFunc(func(ctx context.Context) error {
		if f.label != "" {
			i.module.trace = append(i.module.trace, f.label)
		}
		i.regs = append(i.regs, f.registers...)
		return f.err
	}), nil
}

func (i *fakeInstance) Close(ctx context.Context) error {
	i.module.closed++
	return i.module.closeErr
}

var errAssertion = errors.New("assertion failed")

func test(name string, idx uint32) Registration {
	return Registration{Name: name, FuncIndex: idx, Role: RoleTest}
}

func failingTest(name string, idx uint32) Registration {
	return Registration{Name: name, ShouldFail: true, FuncIndex: idx, Role: RoleTest}
}

func describe(name string, idx uint32) Registration {
	return Registration{Name: name, FuncIndex: idx, Role: RoleDescribe}
}

func hook(role Role, idx uint32) Registration {
	return Registration{FuncIndex: idx, Role: role}
}
