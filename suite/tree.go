package suite

import (
	"context"

	"github.com/0xmhha/matchstick-go/types"
)

// Testable is a *Test or a *Group
type Testable interface {
	testable()
}

// Test is a single test case with the hooks composed around it
type Test struct {
	Name       string
	ShouldFail bool
	Func       Callable
	Before     []Callable
	After      []Callable
}

// Group is a describe block, or the root of a module's tree
type Group struct {
	Name      string
	BeforeAll []Callable
	AfterAll  []Callable
	Testables []Testable
}

func (*Test) testable()  {}
func (*Group) testable() {}

// Build constructs the tree of inst from its top-level registrations,
// recovering describe bodies through disc. Callables are resolved on inst.
func Build(ctx context.Context, inst Instance, disc Discoverer) (*Group, error) {
	return buildGroup(ctx, inst, disc, "", inst.Registrations())
}

func buildGroup(ctx context.Context, inst Instance, disc Discoverer, name string, regs []Registration) (*Group, error) {
	g := &Group{Name: name}
	var beforeEach, afterEach []Callable

	for _, r := range regs {
		fn, err := inst.Callable(ctx, r.FuncIndex)
		if err != nil {
			return nil, err
		}

		switch r.Role {
		case RoleBeforeAll:
			g.BeforeAll = append(g.BeforeAll, fn)
		case RoleAfterAll:
			g.AfterAll = append(g.AfterAll, fn)
		case RoleBeforeEach:
			beforeEach = append(beforeEach, fn)
		case RoleAfterEach:
			afterEach = append(afterEach, fn)
		case RoleTest:
			g.Testables = append(g.Testables, &Test{Name: r.Name, ShouldFail: r.ShouldFail, Func: fn})
		case RoleDescribe:
			nested, err := disc.Discover(ctx, r.FuncIndex)
			if err != nil {
				return nil, err
			}
			child, err := buildGroup(ctx, inst, disc, r.Name, nested)
			if err != nil {
				return nil, err
			}
			g.Testables = append(g.Testables, child)
		default:
			return nil, types.Fatalf("Unrecognized function type `%s`", r.Role)
		}
	}

	composeHooks(g, beforeEach, afterEach)
	return g, nil
}

// composeHooks wraps every test below g, nested groups included, in this
// level's each-hooks: before hooks run ahead of inner ones, after hooks
// run behind them.
func composeHooks(g *Group, before, after []Callable) {
	if len(before) == 0 && len(after) == 0 {
		return
	}
	for _, t := range g.Testables {
		switch t := t.(type) {
		case *Test:
			t.Before = append(append([]Callable{}, before...), t.Before...)
			t.After = append(t.After, after...)
		case *Group:
			composeHooks(t, before, after)
		}
	}
}

// CountTests returns the number of tests below g
func CountTests(g *Group) int {
	n := 0
	for _, t := range g.Testables {
		switch t := t.(type) {
		case *Test:
			n++
		case *Group:
			n += CountTests(t)
		}
	}
	return n
}
