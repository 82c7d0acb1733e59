// Package host implements the host-function surface a test module calls
// into: the mock store, contract-call mocks, data-source templates and
// mocks, IPFS mocks, assertions, test registration and debug logging.
//
// A Context belongs to exactly one module instantiation. It is not safe for
// concurrent use; all guest calls are made sequentially.
package host

import (
	"io"

	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/ethcall"
	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/schema"
	"github.com/0xmhha/matchstick-go/storage"
	"github.com/0xmhha/matchstick-go/suite"
	"github.com/0xmhha/matchstick-go/templates"
	"github.com/0xmhha/matchstick-go/types"
)

// Config holds what every instantiation of a test module shares
type Config struct {
	// Schema is the index built from the manifest's schema file
	Schema *schema.Index

	// Templates are the manifest template definitions
	Templates []templates.Definition

	// Console receives assertion diagnostics and guest log lines
	Console *logger.Console
}

// Context is the mutable state of one module instantiation
type Context struct {
	store     *storage.Store
	calls     *ethcall.Registry
	templates *templates.Registry
	console   *logger.Console
	logger    *zap.Logger

	registrations []suite.Registration
	dataSource    dataSourceValues
	ipfs          map[string]string
	forker        Forker
}

// New creates an empty context. log may be nil.
func New(cfg Config, log *zap.Logger) *Context {
	console := cfg.Console
	if console == nil {
		console = logger.NewConsole(io.Discard, false)
	}
	return &Context{
		store:     storage.New(cfg.Schema),
		calls:     ethcall.NewRegistry(),
		templates: templates.New(cfg.Templates, console),
		console:   console,
		logger:    logger.WithComponent(log, "host"),
		ipfs:      make(map[string]string),
	}
}

// Store returns the entity store
func (c *Context) Store() *storage.Store { return c.store }

// Calls returns the contract-call mock registry
func (c *Context) Calls() *ethcall.Registry { return c.calls }

// Templates returns the data-source template registry
func (c *Context) Templates() *templates.Registry { return c.templates }

// Console returns the console diagnostics are written to
func (c *Context) Console() *logger.Console { return c.console }

// SetForker sets the source of fresh instantiations used by IPFSMap
func (c *Context) SetForker(f Forker) { c.forker = f }

// RegisterTest appends a test registration
func (c *Context) RegisterTest(name string, shouldFail bool, funcIndex uint32) {
	c.registrations = append(c.registrations, suite.Registration{
		Name:       name,
		ShouldFail: shouldFail,
		FuncIndex:  funcIndex,
		Role:       suite.RoleTest,
	})
}

// RegisterDescribe appends a describe registration
func (c *Context) RegisterDescribe(name string, funcIndex uint32) {
	c.registrations = append(c.registrations, suite.Registration{
		Name:      name,
		FuncIndex: funcIndex,
		Role:      suite.RoleDescribe,
	})
}

// RegisterHook appends a hook registration. The role is validated when the
// test tree is built.
func (c *Context) RegisterHook(funcIndex uint32, role string) {
	c.registrations = append(c.registrations, suite.Registration{
		FuncIndex: funcIndex,
		Role:      suite.Role(role),
	})
}

// Registrations returns a copy of the registrations in call order
func (c *Context) Registrations() []suite.Registration {
	return append([]suite.Registration(nil), c.registrations...)
}

// Log writes a guest log line. Level 0 is harness-fatal.
func (c *Context) Log(level uint32, msg string) error {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return types.AsFatal(err)
	}
	if lvl == logger.LevelCritical {
		c.console.Critical("%s", msg)
		return types.Fatalf("%s", msg)
	}
	c.console.Log(lvl, "%s", msg)
	return nil
}
