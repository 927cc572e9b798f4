package graph

import (
	"fmt"

	"lexicore/pkg/lexicon"
)

// Record is the pure-value form of one entity, safe to serialize. Owned
// structure is captured as ordered child identity lists so imports can
// rebuild ownership links.
type Record struct {
	ID        string                         `json:"id"`
	Type      lexicon.EntityType             `json:"type"`
	Texts     map[string]lexicon.MultiText   `json:"texts,omitempty"`
	Refs      map[string]string              `json:"refs,omitempty"`
	RefSets   map[string][]string            `json:"ref_sets,omitempty"`
	Sequences map[string][]string            `json:"sequences,omitempty"`
	Singles   map[string]string              `json:"singles,omitempty"`
}

// Snapshot captures a point-in-time copy of the full project state.
type Snapshot struct {
	Records map[string]Record               `json:"records"`
	Roots   map[lexicon.EntityType][]string `json:"roots"`
}

// ExportState clones the current graph into a flat snapshot for external
// persistence or archive export.
func (s *Store) ExportState() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

// ImportState replaces the graph with the snapshot contents. Records with
// unknown type tags and dangling references are dropped, mirroring the
// store's load-time migration of older snapshots.
func (s *Store) ImportState(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importLocked(migrateSnapshot(snapshot))
}

func (s *Store) exportLocked() Snapshot {
	out := Snapshot{
		Records: make(map[string]Record, len(s.nodes)),
		Roots:   make(map[lexicon.EntityType][]string, len(s.roots)),
	}
	for id, n := range s.nodes {
		out.Records[id] = recordFromNode(n)
	}
	for typ, members := range s.roots {
		ids := make([]string, 0, len(members))
		for _, n := range members {
			ids = append(ids, n.id)
		}
		out.Roots[typ] = ids
	}
	return out
}

func recordFromNode(n *node) Record {
	rec := Record{ID: n.id, Type: n.typ}
	if len(n.texts) > 0 {
		rec.Texts = make(map[string]lexicon.MultiText, len(n.texts))
		for field, value := range n.texts {
			rec.Texts[field] = value.Clone()
		}
	}
	if len(n.refs) > 0 {
		rec.Refs = make(map[string]string, len(n.refs))
		for field, id := range n.refs {
			rec.Refs[field] = id
		}
	}
	if len(n.refSets) > 0 {
		rec.RefSets = make(map[string][]string, len(n.refSets))
		for field, ids := range n.refSets {
			rec.RefSets[field] = append([]string(nil), ids...)
		}
	}
	for field, members := range n.seqs {
		if len(members) == 0 {
			continue
		}
		if rec.Sequences == nil {
			rec.Sequences = make(map[string][]string, len(n.seqs))
		}
		ids := make([]string, 0, len(members))
		for _, child := range members {
			ids = append(ids, child.id)
		}
		rec.Sequences[field] = ids
	}
	for field, child := range n.singles {
		if child == nil {
			continue
		}
		if rec.Singles == nil {
			rec.Singles = make(map[string]string, len(n.singles))
		}
		rec.Singles[field] = child.id
	}
	return rec
}

// migrateSnapshot normalizes a snapshot before import: unknown types are
// dropped, undeclared fields discarded, and references to missing records
// cleared so older exports stay loadable.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Records == nil {
		snapshot.Records = map[string]Record{}
	}
	if snapshot.Roots == nil {
		snapshot.Roots = map[lexicon.EntityType][]string{}
	}
	for id, rec := range snapshot.Records {
		if id == "" || (rec.ID != "" && rec.ID != id) || !lexicon.KnownType(rec.Type) {
			delete(snapshot.Records, id)
			continue
		}
		rec.ID = id
		snapshot.Records[id] = rec
	}
	for typ, ids := range snapshot.Roots {
		if !lexicon.RootType(typ) {
			delete(snapshot.Roots, typ)
		} else {
			snapshot.Roots[typ] = ids
		}
	}

	// Records not reachable from a root list through ownership are orphans
	// left behind by partial exports; drop them before wiring ownership.
	reachable := make(map[string]bool, len(snapshot.Records))
	var visit func(id string)
	visit = func(id string) {
		rec, ok := snapshot.Records[id]
		if !ok || reachable[id] {
			return
		}
		reachable[id] = true
		for _, children := range rec.Sequences {
			for _, childID := range children {
				visit(childID)
			}
		}
		for _, childID := range rec.Singles {
			visit(childID)
		}
	}
	for typ, ids := range snapshot.Roots {
		for _, id := range ids {
			if rec, ok := snapshot.Records[id]; ok && rec.Type == typ {
				visit(id)
			}
		}
	}
	for id := range snapshot.Records {
		if !reachable[id] {
			delete(snapshot.Records, id)
		}
	}

	exists := func(id string) bool {
		_, ok := snapshot.Records[id]
		return ok
	}
	for id, rec := range snapshot.Records {
		for field := range rec.Texts {
			if shape, err := lexicon.Classify(rec.Type, field); err != nil || shape != lexicon.ShapeLocalizedText {
				delete(rec.Texts, field)
			}
		}
		for field, target := range rec.Refs {
			if shape, err := lexicon.Classify(rec.Type, field); err != nil || shape != lexicon.ShapeAtomicReference || !exists(target) {
				delete(rec.Refs, field)
			}
		}
		for field, targets := range rec.RefSets {
			if shape, err := lexicon.Classify(rec.Type, field); err != nil || shape != lexicon.ShapeReferenceSet {
				delete(rec.RefSets, field)
				continue
			}
			if filtered, changed := filterIDs(targets, exists); changed {
				if len(filtered) == 0 {
					delete(rec.RefSets, field)
				} else {
					rec.RefSets[field] = filtered
				}
			}
		}
		for field, children := range rec.Sequences {
			if shape, err := lexicon.Classify(rec.Type, field); err != nil || shape != lexicon.ShapeOwnedSequence {
				delete(rec.Sequences, field)
				continue
			}
			if filtered, changed := filterIDs(children, exists); changed {
				if len(filtered) == 0 {
					delete(rec.Sequences, field)
				} else {
					rec.Sequences[field] = filtered
				}
			}
		}
		for field, child := range rec.Singles {
			if shape, err := lexicon.Classify(rec.Type, field); err != nil || shape != lexicon.ShapeOwnedSingle || !exists(child) {
				delete(rec.Singles, field)
			}
		}
		snapshot.Records[id] = rec
	}
	for typ, ids := range snapshot.Roots {
		if filtered, changed := filterIDs(ids, exists); changed {
			snapshot.Roots[typ] = filtered
		}
	}
	return snapshot
}

func (s *Store) importLocked(snapshot Snapshot) error {
	nodes := make(map[string]*node, len(snapshot.Records))
	for id, rec := range snapshot.Records {
		nodes[id] = newNode(s, rec.Type, id)
	}
	for id, rec := range snapshot.Records {
		n := nodes[id]
		for field, value := range rec.Texts {
			n.texts[field] = value.Clone()
		}
		for field, target := range rec.Refs {
			n.refs[field] = target
		}
		for field, targets := range rec.RefSets {
			n.refSets[field] = append([]string(nil), targets...)
		}
		for field, children := range rec.Sequences {
			members := make([]*node, 0, len(children))
			for _, childID := range children {
				child := nodes[childID]
				if child.attached() {
					return fmt.Errorf("graph: entity %q owned twice in snapshot", childID)
				}
				child.owner = n
				child.ownerField = field
				members = append(members, child)
			}
			n.seqs[field] = members
		}
		for field, childID := range rec.Singles {
			child := nodes[childID]
			if child.attached() {
				return fmt.Errorf("graph: entity %q owned twice in snapshot", childID)
			}
			child.owner = n
			child.ownerField = field
			n.singles[field] = child
		}
	}
	roots := make(map[lexicon.EntityType][]*node, len(snapshot.Roots))
	for typ, ids := range snapshot.Roots {
		members := make([]*node, 0, len(ids))
		for _, id := range ids {
			n := nodes[id]
			if n.attached() {
				return fmt.Errorf("graph: entity %q owned twice in snapshot", id)
			}
			n.rooted = true
			members = append(members, n)
		}
		roots[typ] = members
	}
	s.nodes = nodes
	s.roots = roots
	return nil
}

func filterIDs(ids []string, exists func(string) bool) ([]string, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	changed := false
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			changed = true
			continue
		}
		seen[id] = struct{}{}
		if !exists(id) {
			changed = true
			continue
		}
		out = append(out, id)
	}
	if !changed && len(out) == len(ids) {
		return ids, false
	}
	return out, true
}
