package host

import (
	"go.uber.org/zap"

	"github.com/0xmhha/matchstick-go/storage"
	"github.com/0xmhha/matchstick-go/types"
)

// StoreGet implements store.get
func (c *Context) StoreGet(entityType, id string) (types.Entity, bool) {
	return c.store.Get(storage.Global, entityType, id)
}

// StoreGetInBlock implements store.get_in_block
func (c *Context) StoreGetInBlock(entityType, id string) (types.Entity, bool) {
	return c.store.Get(storage.Cache, entityType, id)
}

// StoreSet implements store.set
func (c *Context) StoreSet(entityType, id string, data types.Entity) error {
	if err := c.store.Set(storage.Global, entityType, id, data); err != nil {
		return err
	}
	c.logger.Debug("entity stored", zap.String("type", entityType), zap.String("id", id))
	return nil
}

// MockInBlockStore writes data to the block-scoped cache
func (c *Context) MockInBlockStore(entityType, id string, data types.Entity) error {
	return c.store.Set(storage.Cache, entityType, id, data)
}

// StoreRemove implements store.remove
func (c *Context) StoreRemove(entityType, id string) error {
	return c.store.Remove(entityType, id)
}

// LoadRelated implements store.loadRelated
func (c *Context) LoadRelated(entityType, id, field string) []types.Entity {
	return c.store.LoadRelated(entityType, id, field)
}

// ClearStore empties the global scope
func (c *Context) ClearStore() { c.store.Clear(storage.Global) }

// ClearInBlockStore empties the block-scoped cache
func (c *Context) ClearInBlockStore() { c.store.Clear(storage.Cache) }

// CountEntities returns the number of entities of entityType in the global scope
func (c *Context) CountEntities(entityType string) int32 {
	return int32(c.store.Count(entityType))
}
