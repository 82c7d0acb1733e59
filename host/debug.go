package host

import (
	"encoding/json"

	"github.com/0xmhha/matchstick-go/storage"
	"github.com/0xmhha/matchstick-go/types"
)

// LogStore implements logStore: the global scope as indented JSON at
// Debug level
func (c *Context) LogStore() error {
	out, err := json.MarshalIndent(c.store.Snapshot(storage.Global), "", "  ")
	if err != nil {
		return types.AsFatal(err)
	}
	c.console.Debug("%s", out)
	return nil
}

// LogEntity implements logEntity. With showRelated the derived fields of
// the entity are resolved and included. An entity type unknown to the
// schema is harness-fatal.
func (c *Context) LogEntity(entityType, id string, showRelated bool) error {
	idx := c.store.Schema()
	if !idx.HasEntity(entityType) {
		return types.Fatalf("(logEntity) Entity \"%s\" does not match any of the schema definitions", entityType)
	}

	fields := make(map[string]interface{})
	if entity, ok := c.store.Get(storage.Global, entityType, id); ok {
		for name, v := range entity {
			fields[name] = v
		}
		if showRelated {
			for _, virtual := range idx.DerivedFields(entityType) {
				related := c.store.LoadRelated(entityType, id, virtual)
				if related == nil {
					related = []types.Entity{}
				}
				fields[virtual] = related
			}
		}
	}

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return types.AsFatal(err)
	}
	c.console.Debug("%s", out)
	return nil
}

// LogDataSources implements logDataSources: the instances of template as
// indented JSON keyed by address. An unknown template is harness-fatal.
func (c *Context) LogDataSources(template string) error {
	instances, ok := c.templates.Instances(template)
	if !ok {
		return types.Fatalf("(logDataSources) No template with name '%s' found.", template)
	}

	byKey := make(map[string]interface{}, len(instances))
	for _, inst := range instances {
		byKey[inst.Key] = inst
	}
	out, err := json.MarshalIndent(byKey, "", "  ")
	if err != nil {
		return types.Fatalf("Something went wrong when trying to convert data sources to string: %w", err)
	}
	c.console.Debug("%s", out)
	return nil
}
