package graph

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"lexicore/pkg/lexicon"
)

// Compile-time contract assertion ensuring the store satisfies the project
// store abstraction.
var _ lexicon.ProjectStore = (*Store)(nil)

// Store is the single-writer in-memory entity graph for one open project.
// Access is serialized with a mutex; the engine itself assumes exclusive
// access and introduces no locking of its own.
type Store struct {
	mu       sync.Mutex
	nodes    map[string]*node
	roots    map[lexicon.EntityType][]*node
	readOnly bool
	changes  []lexicon.Change
	nowFn    func() time.Time
}

// NewStore constructs an empty writable project graph.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]*node),
		roots: make(map[lexicon.EntityType][]*node),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

// SetWritable switches the project between read/write and read-only mode.
func (s *Store) SetWritable(writable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = !writable
}

// NowFunc returns the time provider used for change records.
func (s *Store) NowFunc() func() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nowFn
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

func (s *Store) recordChange(entity lexicon.EntityType, action lexicon.Action, id string) {
	s.changes = append(s.changes, lexicon.Change{Entity: entity, Action: action, ID: id, At: s.nowFn()})
}

// RunInTransaction executes fn against a writable view of the graph. On
// error the pre-transaction state is restored and no changes are reported.
func (s *Store) RunInTransaction(_ context.Context, fn func(lexicon.Graph) error) ([]lexicon.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.exportLocked()
	s.changes = nil
	g := &gView{store: s, writable: !s.readOnly}
	if err := fn(g); err != nil {
		s.importLocked(before)
		s.changes = nil
		return nil, err
	}
	changes := s.changes
	s.changes = nil
	return changes, nil
}

// View executes fn against a read-only view of committed state.
func (s *Store) View(_ context.Context, fn func(lexicon.Graph) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&gView{store: s, writable: false})
}

// gView adapts the store to the lexicon.Graph collaborator contract for the
// duration of one transaction or read view.
type gView struct {
	store    *Store
	writable bool
}

// Writable reports whether mutations are permitted through this view.
func (g *gView) Writable() bool { return g.writable }

func (g *gView) node(e lexicon.Entity) (*node, error) {
	n, ok := e.(*node)
	if !ok || n == nil {
		return nil, fmt.Errorf("graph: foreign entity handle %T", e)
	}
	if n.store != g.store {
		return nil, fmt.Errorf("graph: entity %q belongs to a different project", n.id)
	}
	return n, nil
}

func requireShape(entity lexicon.EntityType, field string, want lexicon.FieldShape) error {
	shape, err := lexicon.Classify(entity, field)
	if err != nil {
		return err
	}
	if shape != want {
		return fmt.Errorf("graph: field %s of %s is %s, not %s", field, entity, shape, want)
	}
	return nil
}

// Create mints a transient entity of the given type with a fresh identity.
func (g *gView) Create(entity lexicon.EntityType) (lexicon.Entity, error) {
	if !g.writable {
		return nil, lexicon.NotWritableError{Entity: entity}
	}
	if !lexicon.KnownType(entity) {
		return nil, fmt.Errorf("graph: unknown entity type %s", entity)
	}
	return newNode(g.store, entity, g.store.newID()), nil
}

// Resolve looks up an attached entity by identity.
func (g *gView) Resolve(id string) (lexicon.Entity, bool) {
	n, ok := g.store.nodes[id]
	if !ok {
		return nil, false
	}
	return n, true
}

// Text reads a localized-text field as an independent copy.
func (g *gView) Text(e lexicon.Entity, field string) (lexicon.MultiText, error) {
	n, err := g.node(e)
	if err != nil {
		return nil, err
	}
	if err := requireShape(n.typ, field, lexicon.ShapeLocalizedText); err != nil {
		return nil, err
	}
	return n.texts[field].Clone(), nil
}

// SetText stores a localized-text value verbatim, all writing systems.
func (g *gView) SetText(e lexicon.Entity, field string, value lexicon.MultiText) error {
	n, err := g.node(e)
	if err != nil {
		return err
	}
	if !g.writable {
		return lexicon.NotWritableError{Entity: n.typ}
	}
	if err := requireShape(n.typ, field, lexicon.ShapeLocalizedText); err != nil {
		return err
	}
	if len(value) == 0 {
		delete(n.texts, field)
	} else {
		n.texts[field] = value.Clone()
	}
	g.store.recordChange(n.typ, lexicon.ActionUpdate, n.id)
	return nil
}

// Ref reads an atomic reference field; empty means unset.
func (g *gView) Ref(e lexicon.Entity, field string) (string, error) {
	n, err := g.node(e)
	if err != nil {
		return "", err
	}
	if err := requireShape(n.typ, field, lexicon.ShapeAtomicReference); err != nil {
		return "", err
	}
	return n.refs[field], nil
}

// SetRef points an atomic reference at the given identity, or clears it when
// id is empty. The target is shared, never owned.
func (g *gView) SetRef(e lexicon.Entity, field string, id string) error {
	n, err := g.node(e)
	if err != nil {
		return err
	}
	if !g.writable {
		return lexicon.NotWritableError{Entity: n.typ}
	}
	if err := requireShape(n.typ, field, lexicon.ShapeAtomicReference); err != nil {
		return err
	}
	if id == "" {
		delete(n.refs, field)
	} else {
		if _, ok := g.store.nodes[id]; !ok {
			return lexicon.NotFoundError{ID: id}
		}
		n.refs[field] = id
	}
	g.store.recordChange(n.typ, lexicon.ActionUpdate, n.id)
	return nil
}

// RefSet reads a reference-set field as an independent identity slice.
func (g *gView) RefSet(e lexicon.Entity, field string) ([]string, error) {
	n, err := g.node(e)
	if err != nil {
		return nil, err
	}
	if err := requireShape(n.typ, field, lexicon.ShapeReferenceSet); err != nil {
		return nil, err
	}
	return append([]string(nil), n.refSets[field]...), nil
}

// SetRefSet replaces a reference set. Duplicates collapse; targets are shared.
func (g *gView) SetRefSet(e lexicon.Entity, field string, ids []string) error {
	n, err := g.node(e)
	if err != nil {
		return err
	}
	if !g.writable {
		return lexicon.NotWritableError{Entity: n.typ}
	}
	if err := requireShape(n.typ, field, lexicon.ShapeReferenceSet); err != nil {
		return err
	}
	deduped := dedupeIDs(ids)
	for _, id := range deduped {
		if _, ok := g.store.nodes[id]; !ok {
			return lexicon.NotFoundError{ID: id}
		}
	}
	if len(deduped) == 0 {
		delete(n.refSets, field)
	} else {
		n.refSets[field] = deduped
	}
	g.store.recordChange(n.typ, lexicon.ActionUpdate, n.id)
	return nil
}

// Children reads an owned-sequence field in membership order.
func (g *gView) Children(e lexicon.Entity, field string) ([]lexicon.Entity, error) {
	n, err := g.node(e)
	if err != nil {
		return nil, err
	}
	if err := requireShape(n.typ, field, lexicon.ShapeOwnedSequence); err != nil {
		return nil, err
	}
	members := n.seqs[field]
	out := make([]lexicon.Entity, 0, len(members))
	for _, child := range members {
		out = append(out, child)
	}
	return out, nil
}

// Child reads an owned-single field.
func (g *gView) Child(e lexicon.Entity, field string) (lexicon.Entity, bool, error) {
	n, err := g.node(e)
	if err != nil {
		return nil, false, err
	}
	if err := requireShape(n.typ, field, lexicon.ShapeOwnedSingle); err != nil {
		return nil, false, err
	}
	child := n.singles[field]
	if child == nil {
		return nil, false, nil
	}
	return child, true, nil
}

// SetChild attaches a transient entity as the owned-single child, replacing
// and cascading away any previous child.
func (g *gView) SetChild(e lexicon.Entity, field string, child lexicon.Entity) error {
	n, err := g.node(e)
	if err != nil {
		return err
	}
	if !g.writable {
		return lexicon.NotWritableError{Entity: n.typ}
	}
	spec, err := lexicon.FieldSpecFor(n.typ, field)
	if err != nil {
		return err
	}
	if spec.Shape != lexicon.ShapeOwnedSingle {
		return fmt.Errorf("graph: field %s of %s is %s, not %s", field, n.typ, spec.Shape, lexicon.ShapeOwnedSingle)
	}
	c, err := g.node(child)
	if err != nil {
		return err
	}
	if c.typ != spec.Child {
		return fmt.Errorf("graph: field %s of %s owns %s, not %s", field, n.typ, spec.Child, c.typ)
	}
	if c.attached() {
		return fmt.Errorf("graph: entity %q is already owned", c.id)
	}
	if previous := n.singles[field]; previous != nil {
		g.store.unregister(previous)
	}
	c.owner = n
	c.ownerField = field
	n.singles[field] = c
	g.store.register(c)
	return nil
}

// OwnerOf resolves the ordered collection currently holding e. Entities held
// by an owned-single field have no ordered collection and resolve false, as
// do transient entities.
func (g *gView) OwnerOf(e lexicon.Entity) (lexicon.Collection, bool) {
	n, err := g.node(e)
	if err != nil {
		return lexicon.Collection{}, false
	}
	if n.rooted {
		return lexicon.RootCollection(n.typ), true
	}
	if n.owner != nil {
		shape, err := lexicon.Classify(n.owner.typ, n.ownerField)
		if err == nil && shape == lexicon.ShapeOwnedSequence {
			return lexicon.OwnedCollection(n.owner, n.ownerField), true
		}
	}
	return lexicon.Collection{}, false
}

// IndexOf returns e's position within the collection, -1 when absent.
func (g *gView) IndexOf(c lexicon.Collection, e lexicon.Entity) int {
	n, err := g.node(e)
	if err != nil {
		return -1
	}
	members, _, err := g.members(c)
	if err != nil {
		return -1
	}
	for i, member := range members {
		if member == n {
			return i
		}
	}
	return -1
}

// InsertAt inserts a transient entity at the given index, shifting later
// members. Membership order is preserved by every other operation.
func (g *gView) InsertAt(c lexicon.Collection, index int, e lexicon.Entity) error {
	members, _, err := g.members(c)
	if err != nil {
		return err
	}
	if index < 0 || index > len(members) {
		return fmt.Errorf("graph: insert index %d out of range [0,%d]", index, len(members))
	}
	return g.attach(c, index, e)
}

// Append inserts a transient entity at the end of the collection.
func (g *gView) Append(c lexicon.Collection, e lexicon.Entity) error {
	members, _, err := g.members(c)
	if err != nil {
		return err
	}
	return g.attach(c, len(members), e)
}

// members resolves a collection to its current member slice and, for owned
// sequences, the owning node.
func (g *gView) members(c lexicon.Collection) ([]*node, *node, error) {
	if c.Owner == nil {
		if !lexicon.RootType(c.Root) {
			return nil, nil, fmt.Errorf("graph: %s is not a root-registrable type", c.Root)
		}
		return g.store.roots[c.Root], nil, nil
	}
	parent, err := g.node(c.Owner)
	if err != nil {
		return nil, nil, err
	}
	if err := requireShape(parent.typ, c.Field, lexicon.ShapeOwnedSequence); err != nil {
		return nil, nil, err
	}
	return parent.seqs[c.Field], parent, nil
}

func (g *gView) attach(c lexicon.Collection, index int, e lexicon.Entity) error {
	n, err := g.node(e)
	if err != nil {
		return err
	}
	if !g.writable {
		return lexicon.NotWritableError{Entity: n.typ}
	}
	if n.attached() {
		return fmt.Errorf("graph: entity %q is already owned", n.id)
	}
	members, parent, err := g.members(c)
	if err != nil {
		return err
	}
	if parent != nil {
		spec, err := lexicon.FieldSpecFor(parent.typ, c.Field)
		if err != nil {
			return err
		}
		if n.typ != spec.Child {
			return fmt.Errorf("graph: field %s of %s owns %s, not %s", c.Field, parent.typ, spec.Child, n.typ)
		}
	} else if n.typ != c.Root {
		return fmt.Errorf("graph: cannot register %s in the %s root list", n.typ, c.Root)
	}

	updated := make([]*node, 0, len(members)+1)
	updated = append(updated, members[:index]...)
	updated = append(updated, n)
	updated = append(updated, members[index:]...)
	if parent != nil {
		parent.seqs[c.Field] = updated
		n.owner = parent
		n.ownerField = c.Field
	} else {
		g.store.roots[c.Root] = updated
		n.rooted = true
	}
	g.store.register(n)
	return nil
}

// Delete detaches the entity from its owner or root list and removes it and
// every owned descendant from the graph. References held by surviving
// entities are left pointing at the removed identities; referenced-entity
// lifetime is independent of the referrer.
func (g *gView) Delete(e lexicon.Entity) error {
	n, err := g.node(e)
	if err != nil {
		return err
	}
	if !g.writable {
		return lexicon.NotWritableError{Entity: n.typ}
	}
	switch {
	case n.rooted:
		g.store.roots[n.typ] = removeNode(g.store.roots[n.typ], n)
		n.rooted = false
	case n.owner != nil:
		parent, field := n.owner, n.ownerField
		shape, err := lexicon.Classify(parent.typ, field)
		if err != nil {
			return err
		}
		if shape == lexicon.ShapeOwnedSequence {
			parent.seqs[field] = removeNode(parent.seqs[field], n)
		} else {
			delete(parent.singles, field)
		}
		n.owner = nil
		n.ownerField = ""
	default:
		return lexicon.NotFoundError{Entity: n.typ, ID: n.id}
	}
	g.store.unregister(n)
	g.store.recordChange(n.typ, lexicon.ActionDelete, n.id)
	return nil
}

// Roots returns the registered root entities of a type in membership order.
func (g *gView) Roots(entity lexicon.EntityType) []lexicon.Entity {
	members := g.store.roots[entity]
	out := make([]lexicon.Entity, 0, len(members))
	for _, n := range members {
		out = append(out, n)
	}
	return out
}

// register indexes n and its owned descendants for Resolve.
func (s *Store) register(n *node) {
	for _, member := range n.descendants(nil) {
		s.nodes[member.id] = member
		s.recordChange(member.typ, lexicon.ActionCreate, member.id)
	}
}

// unregister drops n and its owned descendants from the index.
func (s *Store) unregister(n *node) {
	for _, member := range n.descendants(nil) {
		delete(s.nodes, member.id)
	}
}

func removeNode(members []*node, n *node) []*node {
	out := members[:0]
	for _, member := range members {
		if member != n {
			out = append(out, member)
		}
	}
	return out
}

func dedupeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
