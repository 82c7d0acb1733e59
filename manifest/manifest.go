// Package manifest reads the parts of subgraph.yaml the test harness needs:
// the schema location, the declared templates and the handlers of every source.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/matchstick-go/templates"
	"github.com/0xmhha/matchstick-go/types"
)

// ErrInvalidManifest is returned when subgraph.yaml is not valid YAML
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a parsed subgraph.yaml
type Manifest struct {
	// Path is the file the manifest was loaded from
	Path        string   `yaml:"-"`
	SpecVersion string   `yaml:"specVersion"`
	Schema      Schema   `yaml:"schema"`
	DataSources []Source `yaml:"dataSources"`
	Templates   []Source `yaml:"templates"`
}

// Schema locates the GraphQL schema
type Schema struct {
	File string `yaml:"file"`
}

// Source is a data source or a template
type Source struct {
	Kind    string  `yaml:"kind"`
	Name    string  `yaml:"name"`
	Network string  `yaml:"network"`
	Mapping Mapping `yaml:"mapping"`
}

// Mapping holds the handlers of a source
type Mapping struct {
	File          string    `yaml:"file"`
	EventHandlers []Handler `yaml:"eventHandlers"`
	CallHandlers  []Handler `yaml:"callHandlers"`
}

// Handler binds an event or call to a mapping function
type Handler struct {
	Event    string `yaml:"event"`
	Function string `yaml:"function"`
	Handler  string `yaml:"handler"`
}

// Load reads and parses the manifest at path. A read failure is
// harness-fatal; a YAML error returns ErrInvalidManifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Fatalf("Something went wrong while trying to read `%s`: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses manifest content loaded from path
func Parse(path string, data []byte) (*Manifest, error) {
	m := &Manifest{Path: path}
	if err := yaml.Unmarshal(data, m); err != nil {
		return &Manifest{Path: path}, fmt.Errorf("%w: %s is empty or contains invalid values: %v", ErrInvalidManifest, path, err)
	}
	return m, nil
}

// Dir returns the directory relative paths in the manifest resolve against
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// SchemaPath returns the schema file path resolved against the manifest directory
func (m *Manifest) SchemaPath() (string, error) {
	if m.Schema.File == "" {
		return "", types.Fatalf("Couldn't find key `file` under `schema` in %s", m.Path)
	}
	return m.resolve(m.Schema.File), nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir(), p)
}

// Sources returns the data sources followed by the templates
func (m *Manifest) Sources() []Source {
	out := make([]Source, 0, len(m.DataSources)+len(m.Templates))
	out = append(out, m.DataSources...)
	return append(out, m.Templates...)
}

// HandlerNames returns the event handlers followed by the call handlers
func (s Source) HandlerNames() []string {
	names := make([]string, 0, len(s.Mapping.EventHandlers)+len(s.Mapping.CallHandlers))
	for _, h := range s.Mapping.EventHandlers {
		names = append(names, h.Handler)
	}
	for _, h := range s.Mapping.CallHandlers {
		names = append(names, h.Handler)
	}
	return names
}

// Handlers returns the event and call handler names of every source by source name
func (m *Manifest) Handlers() map[string][]string {
	out := make(map[string][]string)
	for _, s := range m.Sources() {
		out[s.Name] = s.HandlerNames()
	}
	return out
}

// TemplateDefs returns the declared templates as registry definitions
func (m *Manifest) TemplateDefs() []templates.Definition {
	defs := make([]templates.Definition, 0, len(m.Templates))
	for _, t := range m.Templates {
		defs = append(defs, templates.Definition{Name: t.Name, Kind: t.Kind})
	}
	return defs
}

// MappingFiles returns the distinct mapping source files, resolved against
// the manifest directory
func (m *Manifest) MappingFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, s := range m.Sources() {
		if s.Mapping.File == "" {
			continue
		}
		p := m.resolve(s.Mapping.File)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	return files
}
