package lexicon

import "context"

// Entity is a live node handle in a project graph. Handles are only
// meaningful against the graph that produced them; cross-project comparison
// goes through identity strings in snapshots instead.
type Entity interface {
	// Identity returns the stable, globally unique identifier assigned at
	// creation. It never changes and is comparable across project copies.
	Identity() string
	// Type returns the schema type tag determining the entity's field table.
	Type() EntityType
}

// Collection addresses one ordered parent collection: either the owned
// sequence field of an owner entity, or the flat root registration list for
// a root-level entity type (Owner nil).
type Collection struct {
	Owner Entity
	Field string
	Root  EntityType
}

// RootCollection addresses the registration list for a root entity type.
func RootCollection(entity EntityType) Collection {
	return Collection{Root: entity}
}

// OwnedCollection addresses an owned sequence field of the given owner.
func OwnedCollection(owner Entity, field string) Collection {
	return Collection{Owner: owner, Field: field}
}

// Graph is the entity-graph collaborator consumed by the duplication and
// synchronization engine. Field access is dispatched per the declared shape;
// undeclared fields fail with UnknownFieldError, and mutations against a
// read-only graph fail with NotWritableError.
type Graph interface {
	// Writable reports whether the project is open in read/write mode.
	Writable() bool
	// Create mints a new entity of the given type with a fresh identity.
	// The entity is transient until inserted into an owning collection or
	// registered in a root list.
	Create(entity EntityType) (Entity, error)
	// Resolve looks up a live entity by identity.
	Resolve(id string) (Entity, bool)

	// Text reads a localized-text field. Absent writing systems are simply
	// missing keys; a nil map is a valid unset value.
	Text(e Entity, field string) (MultiText, error)
	SetText(e Entity, field string, value MultiText) error
	// Ref reads an atomic reference field as the referenced identity, empty
	// when unset.
	Ref(e Entity, field string) (string, error)
	SetRef(e Entity, field string, id string) error
	// RefSet reads a reference-set field as referenced identities.
	RefSet(e Entity, field string) ([]string, error)
	SetRefSet(e Entity, field string, ids []string) error
	// Children reads an owned-sequence field in order.
	Children(e Entity, field string) ([]Entity, error)
	// Child reads an owned-single field.
	Child(e Entity, field string) (Entity, bool, error)
	// SetChild attaches an owned-single child, reparenting it under e.
	SetChild(e Entity, field string, child Entity) error

	// OwnerOf resolves the collection currently holding e, or false when the
	// entity is transient.
	OwnerOf(e Entity) (Collection, bool)
	// IndexOf returns e's position within the collection, -1 when absent.
	IndexOf(c Collection, e Entity) int
	// InsertAt inserts e at the given index, shifting later members.
	InsertAt(c Collection, index int, e Entity) error
	// Append inserts e at the end of the collection.
	Append(c Collection, e Entity) error

	// Delete detaches e from its owner and removes it together with every
	// owned descendant. Non-owning references to removed identities survive.
	Delete(e Entity) error
	// Roots lists the registered root entities of a type in order.
	Roots(entity EntityType) []Entity
}

// ProjectStore is the minimal abstraction over a project backend used by
// higher layers. Mutations run inside RunInTransaction against a writable
// graph; View exposes a read-only graph of committed state.
type ProjectStore interface {
	RunInTransaction(ctx context.Context, fn func(Graph) error) ([]Change, error)
	View(ctx context.Context, fn func(Graph) error) error
}
