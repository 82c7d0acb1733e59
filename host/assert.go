package host

import (
	"github.com/0xmhha/matchstick-go/abi"
	"github.com/0xmhha/matchstick-go/storage"
)

// Assertions never fail the call itself: they return false and write an
// Error line describing the mismatch. The WithMessage variants replace the
// mismatch description with message; lookup failures keep their own text.

// FieldEquals implements assert.fieldEquals
func (c *Context) FieldEquals(entityType, id, field, expected string) bool {
	return c.fieldEquals(entityType, id, field, expected, nil)
}

// FieldEqualsWithMessage implements assert.fieldEqualsWithMessage
func (c *Context) FieldEqualsWithMessage(entityType, id, field, expected, message string) bool {
	return c.fieldEquals(entityType, id, field, expected, &message)
}

func (c *Context) fieldEquals(entityType, id, field, expected string, message *string) bool {
	if c.store.Count(entityType) == 0 {
		c.console.Error("(assert.fieldEquals) No entities with type '%s' found.", entityType)
		return false
	}

	entity, ok := c.store.Get(storage.Global, entityType, id)
	if !ok {
		c.console.Error("(assert.fieldEquals) No entity with type '%s' and id '%s' found.", entityType, id)
		return false
	}

	v, ok := entity[field]
	if !ok {
		c.console.Error("(assert.fieldEquals) No field named '%s' on entity with type '%s' and id '%s' found.", field, entityType, id)
		return false
	}

	if actual := v.String(); actual != expected {
		if message != nil {
			c.console.Error("(assert.fieldEquals) %s", *message)
		} else {
			c.console.Error("(assert.fieldEquals) Expected field '%s' to equal '%s', but was '%s' instead.", field, expected, actual)
		}
		return false
	}
	return true
}

// Equals implements assert.equals
func (c *Context) Equals(expected, actual abi.Token) bool {
	return c.equals(expected, actual, nil)
}

// EqualsWithMessage implements assert.equalsWithMessage
func (c *Context) EqualsWithMessage(expected, actual abi.Token, message string) bool {
	return c.equals(expected, actual, &message)
}

func (c *Context) equals(expected, actual abi.Token, message *string) bool {
	if expected.Equal(actual) {
		return true
	}
	if message != nil {
		c.console.Error("(assert.equals) %s", *message)
	} else {
		c.console.Error("(assert.equals) Expected value was '%s' but actual value was '%s'", expected.ToValue(), actual.ToValue())
	}
	return false
}

// NotInStore implements assert.notInStore
func (c *Context) NotInStore(entityType, id string) bool {
	return c.notInStore(entityType, id, nil)
}

// NotInStoreWithMessage implements assert.notInStoreWithMessage
func (c *Context) NotInStoreWithMessage(entityType, id, message string) bool {
	return c.notInStore(entityType, id, &message)
}

func (c *Context) notInStore(entityType, id string, message *string) bool {
	if !c.store.Has(storage.Global, entityType, id) {
		return true
	}
	if message != nil {
		c.console.Error("(assert.notInStore) %s", *message)
	} else {
		c.console.Error("(assert.notInStore) Value for entity type: '%s' and id: '%s' was found in store.", entityType, id)
	}
	return false
}

// DataSourceCount implements assert.dataSourceCount
func (c *Context) DataSourceCount(template string, expected int) bool {
	return c.dataSourceCount(template, expected, nil)
}

// DataSourceCountWithMessage implements assert.dataSourceCountWithMessage
func (c *Context) DataSourceCountWithMessage(template string, expected int, message string) bool {
	return c.dataSourceCount(template, expected, &message)
}

func (c *Context) dataSourceCount(template string, expected int, message *string) bool {
	actual, ok := c.templates.Count(template)
	if !ok {
		c.console.Error("(assert.dataSourceCoutn) No template with name '%s' found.", template)
		return false
	}
	if actual == expected {
		return true
	}
	if message != nil {
		c.console.Error("(assert.dataSourceCount) %s", *message)
	} else {
		c.console.Error("(assert.dataSourceCount) Expected dataSource count for template `%s` to be '%d' but was '%d'", template, expected, actual)
	}
	return false
}

// DataSourceExists implements assert.dataSourceExists
func (c *Context) DataSourceExists(template, address string) bool {
	return c.dataSourceExists(template, address, nil)
}

// DataSourceExistsWithMessage implements assert.dataSourceExistsWithMessage
func (c *Context) DataSourceExistsWithMessage(template, address, message string) bool {
	return c.dataSourceExists(template, address, &message)
}

func (c *Context) dataSourceExists(template, address string, message *string) bool {
	exists, ok := c.templates.Exists(template, address)
	if !ok {
		c.console.Error("(assert.dataSourceExists) No template with name '%s' found.", template)
		return false
	}
	if exists {
		return true
	}
	if message != nil {
		c.console.Error("(assert.dataSourceExists) %s", *message)
	} else {
		c.console.Error("(assert.dataSourceExists) No dataSource with address '%s' found for template '%s'", address, template)
	}
	return false
}
