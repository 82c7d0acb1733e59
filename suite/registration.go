// Package suite builds the executable test tree of one compiled test module
// from the registrations its code makes, and runs it.
package suite

import (
	"context"

	"github.com/0xmhha/matchstick-go/types"
)

// Role is the kind of callable a registration binds
type Role string

const (
	RoleTest       Role = "test"
	RoleDescribe   Role = "describe"
	RoleBeforeAll  Role = "beforeAll"
	RoleAfterAll   Role = "afterAll"
	RoleBeforeEach Role = "beforeEach"
	RoleAfterEach  Role = "afterEach"
)

// ParseRole validates a role name. Unknown roles are harness-fatal.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleTest, RoleDescribe, RoleBeforeAll, RoleAfterAll, RoleBeforeEach, RoleAfterEach:
		return r, nil
	}
	return "", types.Fatalf("Unrecognized function type `%s`", s)
}

// Registration is one test, describe or hook registered by module code.
// Hooks carry an empty name.
type Registration struct {
	Name       string
	ShouldFail bool
	FuncIndex  uint32
	Role       Role
}

// Diff returns the registrations of updated that do not appear in baseline,
// in order
func Diff(updated, baseline []Registration) []Registration {
	var out []Registration
	for _, r := range updated {
		if !contains(baseline, r) {
			out = append(out, r)
		}
	}
	return out
}

func contains(list []Registration, r Registration) bool {
	for _, x := range list {
		if x == r {
			return true
		}
	}
	return false
}

// Callable is a guest function taking no arguments
type Callable interface {
	Call(ctx context.Context) error
}

// CallableFunc adapts a function to Callable
type CallableFunc func(ctx context.Context) error

// Call implements Callable
func (f CallableFunc) Call(ctx context.Context) error { return f(ctx) }

// Instance is one instantiation of a compiled test module with its own
// store, registries and registration list
type Instance interface {
	// Registrations returns a copy of the registrations made so far
	Registrations() []Registration
	// Callable resolves a function table index. An unknown index is harness-fatal.
	Callable(ctx context.Context, idx uint32) (Callable, error)
	Close(ctx context.Context) error
}

// Module creates independent instances of one compiled test module
type Module interface {
	Instantiate(ctx context.Context) (Instance, error)
}
