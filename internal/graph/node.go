// Package graph provides the in-memory entity graph store backing a lexicore
// project: typed nodes, ordered owned collections, root registration lists,
// and save-on-commit snapshots.
package graph

import (
	"lexicore/pkg/lexicon"
)

// node is the live representation of one entity. Field storage is segregated
// by shape so accessors never reinterpret a value under the wrong rule.
type node struct {
	store *Store
	id    string
	typ   lexicon.EntityType

	texts   map[string]lexicon.MultiText
	refs    map[string]string
	refSets map[string][]string
	seqs    map[string][]*node
	singles map[string]*node

	// owner/ownerField are set iff the node is held by another entity's
	// owned field. rooted marks membership in a root registration list.
	// A node with neither is transient.
	owner      *node
	ownerField string
	rooted     bool
}

// Identity returns the stable identifier assigned at creation.
func (n *node) Identity() string { return n.id }

// Type returns the schema type tag.
func (n *node) Type() lexicon.EntityType { return n.typ }

func (n *node) attached() bool { return n.rooted || n.owner != nil }

func newNode(s *Store, typ lexicon.EntityType, id string) *node {
	return &node{
		store:   s,
		id:      id,
		typ:     typ,
		texts:   make(map[string]lexicon.MultiText),
		refs:    make(map[string]string),
		refSets: make(map[string][]string),
		seqs:    make(map[string][]*node),
		singles: make(map[string]*node),
	}
}

// descendants appends n and every transitively owned node to out,
// sequence children in order, owned singles after.
func (n *node) descendants(out []*node) []*node {
	out = append(out, n)
	for _, field := range lexicon.Fields(n.typ) {
		spec, err := lexicon.FieldSpecFor(n.typ, field)
		if err != nil {
			continue
		}
		switch spec.Shape {
		case lexicon.ShapeOwnedSequence:
			for _, child := range n.seqs[field] {
				out = child.descendants(out)
			}
		case lexicon.ShapeOwnedSingle:
			if child := n.singles[field]; child != nil {
				out = child.descendants(out)
			}
		}
	}
	return out
}
