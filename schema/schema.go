// Package schema indexes a subgraph GraphQL schema for the mock store: the
// fields every entity type requires and the virtual fields derived from the
// inverse side of a relation.
package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/0xmhha/matchstick-go/types"
)

// derivedFromDirective marks a virtual relation field
const derivedFromDirective = "derivedFrom"

// Field describes one declared field of an entity type
type Field struct {
	Name string
	// Type is the element type name with list and non-null wrappers removed
	Type    string
	NonNull bool
	List    bool
	Derived bool
}

// Relation points at the field of another entity type that a derived field
// is resolved through
type Relation struct {
	EntityType string
	Field      string
}

// Index holds the per-type field definitions, the interface implementor
// lists and the derived-field relations of one schema. It is immutable
// after Build.
type Index struct {
	entities   map[string][]Field
	interfaces map[string][]string
	derived    map[string]map[string][]Relation
	order      []string
}

// Build indexes a parsed schema document
func Build(doc *ast.SchemaDocument) *Index {
	idx := &Index{
		entities:   make(map[string][]Field),
		interfaces: make(map[string][]string),
		derived:    make(map[string]map[string][]Relation),
	}
	if doc == nil {
		return idx
	}

	for _, def := range doc.Definitions {
		if def.Kind == ast.Interface {
			if _, ok := idx.interfaces[def.Name]; !ok {
				idx.interfaces[def.Name] = []string{}
			}
		}
	}

	for _, def := range doc.Definitions {
		if def.Kind != ast.Object {
			continue
		}
		if _, seen := idx.entities[def.Name]; !seen {
			idx.order = append(idx.order, def.Name)
		}
		idx.entities[def.Name] = fieldsOf(def)
		for _, iface := range def.Interfaces {
			idx.interfaces[iface] = append(idx.interfaces[iface], def.Name)
		}
	}

	for _, def := range doc.Definitions {
		if def.Kind != ast.Object {
			continue
		}
		for _, f := range def.Fields {
			d := f.Directives.ForName(derivedFromDirective)
			if d == nil {
				continue
			}
			idx.addDerived(def.Name, f, d)
		}
	}

	return idx
}

func fieldsOf(def *ast.Definition) []Field {
	fields := make([]Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		if f.Type == nil {
			continue
		}
		fields = append(fields, Field{
			Name:    f.Name,
			Type:    f.Type.Name(),
			NonNull: f.Type.NonNull,
			List:    f.Type.Elem != nil,
			Derived: f.Directives.ForName(derivedFromDirective) != nil,
		})
	}
	return fields
}

// addDerived records the relation of one derived field. The first
// declaration for an (entity type, field) key wins.
func (idx *Index) addDerived(entityType string, f *ast.FieldDefinition, d *ast.Directive) {
	target := f.Type.Name()
	targetField := directiveField(d)

	var relations []Relation
	if implementors, ok := idx.interfaces[target]; ok {
		for _, impl := range implementors {
			relations = append(relations, Relation{EntityType: impl, Field: targetField})
		}
	} else {
		relations = []Relation{{EntityType: target, Field: targetField}}
	}

	byField, ok := idx.derived[entityType]
	if !ok {
		byField = make(map[string][]Relation)
		idx.derived[entityType] = byField
	}
	if _, exists := byField[f.Name]; !exists {
		byField[f.Name] = relations
	}
}

// directiveField reads the target field name of a derivedFrom directive:
// the "field" argument, falling back to the last argument given.
func directiveField(d *ast.Directive) string {
	arg := d.Arguments.ForName("field")
	if arg == nil && len(d.Arguments) > 0 {
		arg = d.Arguments[len(d.Arguments)-1]
	}
	if arg == nil || arg.Value == nil {
		return ""
	}
	return strings.Trim(arg.Value.Raw, `"`)
}

// Parse parses schema text and indexes it. Parse failures are harness-fatal.
func Parse(name, input string) (*Index, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: input})
	if err != nil {
		return nil, types.Fatalf("failed to parse schema %s: %w", name, err)
	}
	return Build(doc), nil
}

// LoadFile reads and indexes a schema file. Read and parse failures are
// harness-fatal.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Fatalf("failed to read schema file %s: %w", path, err)
	}
	return Parse(path, string(data))
}

// HasEntity reports whether entityType is a declared object type
func (idx *Index) HasEntity(entityType string) bool {
	_, ok := idx.entities[entityType]
	return ok
}

// EntityTypes returns the declared object types in declaration order
func (idx *Index) EntityTypes() []string {
	return append([]string(nil), idx.order...)
}

// Fields returns the declared fields of entityType in declaration order
func (idx *Index) Fields(entityType string) ([]Field, bool) {
	fields, ok := idx.entities[entityType]
	return fields, ok
}

// RequiredFields returns the fields of entityType that are non-nullable and
// not derived. An unknown entity type is harness-fatal.
func (idx *Index) RequiredFields(entityType string) ([]Field, error) {
	fields, ok := idx.entities[entityType]
	if !ok {
		return nil, types.Fatalf("no entity type %q in schema", entityType)
	}
	var required []Field
	for _, f := range fields {
		if f.NonNull && !f.Derived {
			required = append(required, f)
		}
	}
	return required, nil
}

// IsInterface reports whether name is a declared interface
func (idx *Index) IsInterface(name string) bool {
	_, ok := idx.interfaces[name]
	return ok
}

// Implementors returns the object types implementing iface
func (idx *Index) Implementors(iface string) []string {
	return append([]string(nil), idx.interfaces[iface]...)
}

// Derived returns the relations a derived field of entityType resolves through
func (idx *Index) Derived(entityType, field string) ([]Relation, bool) {
	rel, ok := idx.derived[entityType][field]
	return rel, ok
}

// DerivedFields returns the names of the derived fields of entityType, sorted
func (idx *Index) DerivedFields(entityType string) []string {
	byField := idx.derived[entityType]
	names := make([]string, 0, len(byField))
	for name := range byField {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String summarizes the index for debug logging
func (idx *Index) String() string {
	return fmt.Sprintf("schema.Index{entities: %d, interfaces: %d, derived: %d}",
		len(idx.entities), len(idx.interfaces), len(idx.derived))
}
