package storage

import (
	"sort"

	"github.com/0xmhha/matchstick-go/schema"
	"github.com/0xmhha/matchstick-go/types"
)

// Snapshot is a deep copy of one scope: entity type -> id -> record
type Snapshot map[string]map[string]types.Entity

// Store is the in-memory entity store of one module instantiation.
// It is not safe for concurrent use.
type Store struct {
	schema *schema.Index
	scopes [2]Snapshot
}

// New creates an empty store validating writes against idx
func New(idx *schema.Index) *Store {
	if idx == nil {
		idx = schema.Build(nil)
	}
	return &Store{
		schema: idx,
		scopes: [2]Snapshot{make(Snapshot), make(Snapshot)},
	}
}

// Schema returns the index the store validates against
func (s *Store) Schema() *schema.Index { return s.schema }

func (s *Store) scope(scope Scope) Snapshot {
	if scope == Cache {
		return s.scopes[Cache]
	}
	return s.scopes[Global]
}

// Get returns a copy of the record stored at (entityType, id) in scope
func (s *Store) Get(scope Scope, entityType, id string) (types.Entity, bool) {
	e, ok := s.scope(scope)[entityType][id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Has reports whether (entityType, id) exists in scope
func (s *Store) Has(scope Scope, entityType, id string) bool {
	_, ok := s.scope(scope)[entityType][id]
	return ok
}

// Set validates record against the required fields of entityType and
// stores a copy of it. A validation failure leaves the store untouched.
// An entity type unknown to the schema is harness-fatal.
func (s *Store) Set(scope Scope, entityType, id string, record types.Entity) error {
	required, err := s.schema.RequiredFields(entityType)
	if err != nil {
		return err
	}
	for _, f := range required {
		v, ok := record[f.Name]
		if !ok {
			return &MissingRequiredFieldError{Field: f.Name, EntityType: entityType}
		}
		if v.IsNull() {
			return &MissingRequiredFieldError{Field: f.Name, EntityType: entityType, Null: true}
		}
	}

	byID, ok := s.scope(scope)[entityType]
	if !ok {
		byID = make(map[string]types.Entity)
		s.scope(scope)[entityType] = byID
	}
	byID[id] = record.Clone()
	return nil
}

// Remove deletes (entityType, id) from the global scope
func (s *Store) Remove(entityType, id string) error {
	byID := s.scopes[Global][entityType]
	if _, ok := byID[id]; !ok {
		return &RemoveError{EntityType: entityType, ID: id}
	}
	delete(byID, id)
	return nil
}

// Clear empties scope
func (s *Store) Clear(scope Scope) {
	s.scopes[scope] = make(Snapshot)
}

// Count returns the number of entities of entityType in the global scope
func (s *Store) Count(entityType string) int {
	return len(s.scopes[Global][entityType])
}

// IDs returns the ids stored under entityType in scope, sorted
func (s *Store) IDs(scope Scope, entityType string) []string {
	byID := s.scope(scope)[entityType]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadRelated resolves the derived field virtualField of (entityType, id)
// by scanning the global scope for records whose relation field references
// id. Only String, Bytes and List relation values can match.
func (s *Store) LoadRelated(entityType, id, virtualField string) []types.Entity {
	relations, ok := s.schema.Derived(entityType, virtualField)
	if !ok {
		return nil
	}

	var related []types.Entity
	for _, rel := range relations {
		candidates := s.scopes[Global][rel.EntityType]
		for _, candidateID := range s.IDs(Global, rel.EntityType) {
			candidate := candidates[candidateID]
			v, ok := candidate[rel.Field]
			if !ok {
				continue
			}
			for _, ref := range relationIDs(v) {
				if ref.String() == id {
					related = append(related, candidate.Clone())
					break
				}
			}
		}
	}
	return related
}

func relationIDs(v types.Value) []types.Value {
	switch v.Kind() {
	case types.KindString, types.KindBytes:
		return []types.Value{v}
	case types.KindList:
		elems, _ := v.AsList()
		return elems
	}
	return nil
}

// Snapshot returns a deep copy of scope
func (s *Store) Snapshot(scope Scope) Snapshot {
	return s.scope(scope).clone()
}

// Restore replaces scope with a deep copy of snap
func (s *Store) Restore(scope Scope, snap Snapshot) {
	s.scopes[scope] = snap.clone()
}

func (snap Snapshot) clone() Snapshot {
	out := make(Snapshot, len(snap))
	for entityType, byID := range snap {
		copied := make(map[string]types.Entity, len(byID))
		for id, e := range byID {
			copied[id] = e.Clone()
		}
		out[entityType] = copied
	}
	return out
}
