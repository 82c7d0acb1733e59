// Package templates tracks the data sources created dynamically from
// manifest templates during a test.
package templates

import (
	"errors"
	"sort"
	"strings"

	"github.com/0xmhha/matchstick-go/internal/logger"
	"github.com/0xmhha/matchstick-go/types"
)

// ErrUnknownTemplate is wrapped by the fatal error returned for an undeclared template name
var ErrUnknownTemplate = errors.New("unknown template")

// SupportedKinds are the template kinds that can be instantiated
var SupportedKinds = []string{"ethereum", "ethereum/contract", "file/ipfs"}

// Definition is a template declared in the manifest
type Definition struct {
	Name string
	Kind string
}

// Instance is one data source created from a template
type Instance struct {
	Kind    string       `json:"kind"`
	Name    string       `json:"name"`
	Key     string       `json:"address"`
	Context types.Entity `json:"context"`
}

// Registry holds the known templates and their instances. It is not safe
// for concurrent use.
type Registry struct {
	kinds     map[string]string
	order     []string
	instances map[string]map[string]Instance
}

// New builds a registry from manifest template definitions. Definitions of
// unsupported kinds are skipped with a warning on console, which may be nil.
func New(defs []Definition, console *logger.Console) *Registry {
	r := &Registry{
		kinds:     make(map[string]string),
		instances: make(map[string]map[string]Instance),
	}
	for _, d := range defs {
		if !Supported(d.Kind) {
			if console != nil {
				console.Warning("Template with kind `%s` is not supported by matchstick.", d.Kind)
			}
			continue
		}
		if _, seen := r.kinds[d.Name]; !seen {
			r.order = append(r.order, d.Name)
		}
		r.kinds[d.Name] = d.Kind
		r.instances[d.Name] = make(map[string]Instance)
	}
	return r
}

// Supported reports whether kind can be instantiated
func Supported(kind string) bool {
	for _, k := range SupportedKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Create records a data source instance of template name keyed by
// params[0], replacing any instance with the same key. An unknown template
// is harness-fatal.
func (r *Registry) Create(name string, params []string, ctx types.Entity) error {
	kind, ok := r.kinds[name]
	if !ok {
		return types.Fatalf("Failed to create data source from name `%s`: No template with this name available. Available names: %s.: %w",
			name, strings.Join(r.order, ", "), ErrUnknownTemplate)
	}
	if len(params) == 0 {
		return errors.New("dataSource.create: expected at least one parameter")
	}
	r.instances[name][params[0]] = Instance{
		Kind:    kind,
		Name:    name,
		Key:     params[0],
		Context: ctx.Clone(),
	}
	return nil
}

// Has reports whether name is a known template
func (r *Registry) Has(name string) bool {
	_, ok := r.kinds[name]
	return ok
}

// Kind returns the kind of template name
func (r *Registry) Kind(name string) (string, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Names returns the known template names in declaration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Count returns the number of instances of template name; ok is false for
// an unknown template
func (r *Registry) Count(name string) (n int, ok bool) {
	byKey, ok := r.instances[name]
	return len(byKey), ok
}

// Exists reports whether template name has an instance keyed by key; ok is
// false for an unknown template
func (r *Registry) Exists(name, key string) (exists, ok bool) {
	byKey, ok := r.instances[name]
	if !ok {
		return false, false
	}
	_, exists = byKey[key]
	return exists, true
}

// Instances returns the instances of template name sorted by key
func (r *Registry) Instances(name string) ([]Instance, bool) {
	byKey, ok := r.instances[name]
	if !ok {
		return nil, false
	}
	out := make([]Instance, 0, len(byKey))
	for _, inst := range byKey {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, true
}
