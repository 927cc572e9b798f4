package engine

import (
	"lexicore/pkg/lexicon"
)

// Duplicate clones source into its own parent collection and returns the new
// entity. The clone receives a fresh identity; insertAfter places it directly
// after source while false appends it at the end. Localized text and
// reference fields are copied verbatim — referenced entities are shared, not
// cloned. Owned structure is recursively cloned only when deep is true;
// shallow duplicates leave owned fields empty.
//
// The clone is inserted into its collection before any field is written:
// some stores refuse field mutation on unowned entities, so attachment must
// precede population even though it reads backwards from a build-then-attach
// design.
func (e *Engine) Duplicate(g lexicon.Graph, source lexicon.Entity, insertAfter, deep bool) (lexicon.Entity, error) {
	if !g.Writable() {
		return nil, lexicon.NotWritableError{Entity: source.Type()}
	}
	parent, ok := g.OwnerOf(source)
	if !ok {
		return nil, lexicon.InvalidSourceError{Entity: source.Type(), ID: source.Identity()}
	}
	clone, err := g.Create(source.Type())
	if err != nil {
		return nil, err
	}
	if insertAfter {
		index := g.IndexOf(parent, source)
		if index < 0 {
			return nil, lexicon.InvalidSourceError{Entity: source.Type(), ID: source.Identity()}
		}
		err = g.InsertAt(parent, index+1, clone)
	} else {
		err = g.Append(parent, clone)
	}
	if err != nil {
		return nil, err
	}
	if err := e.copyFields(g, source, clone, deep, 0); err != nil {
		return nil, err
	}
	return clone, nil
}

// copyFields populates dst from src per the declared field shapes. Owned
// children recurse under a depth budget; reference fields never recurse, so
// reference cycles cannot drive the recursion.
func (e *Engine) copyFields(g lexicon.Graph, src, dst lexicon.Entity, deep bool, depth int) error {
	if depth > e.maxDepth {
		return ErrOwnedDepthExceeded
	}
	for _, field := range lexicon.Fields(src.Type()) {
		spec, err := lexicon.FieldSpecFor(src.Type(), field)
		if err != nil {
			return err
		}
		switch spec.Shape {
		case lexicon.ShapeLocalizedText:
			value, err := g.Text(src, field)
			if err != nil {
				return err
			}
			if len(value) == 0 {
				continue
			}
			if err := g.SetText(dst, field, value); err != nil {
				return err
			}
		case lexicon.ShapeAtomicReference:
			id, err := g.Ref(src, field)
			if err != nil {
				return err
			}
			if id == "" {
				continue
			}
			if err := g.SetRef(dst, field, id); err != nil {
				return err
			}
		case lexicon.ShapeReferenceSet:
			ids, err := g.RefSet(src, field)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				continue
			}
			if err := g.SetRefSet(dst, field, ids); err != nil {
				return err
			}
		case lexicon.ShapeOwnedSequence:
			if !deep {
				continue
			}
			children, err := g.Children(src, field)
			if err != nil {
				return err
			}
			for _, child := range children {
				childClone, err := g.Create(child.Type())
				if err != nil {
					return err
				}
				if err := g.Append(lexicon.OwnedCollection(dst, field), childClone); err != nil {
					return err
				}
				if err := e.copyFields(g, child, childClone, deep, depth+1); err != nil {
					return err
				}
			}
		case lexicon.ShapeOwnedSingle:
			if !deep {
				continue
			}
			child, ok, err := g.Child(src, field)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			childClone, err := g.Create(child.Type())
			if err != nil {
				return err
			}
			if err := g.SetChild(dst, field, childClone); err != nil {
				return err
			}
			if err := e.copyFields(g, child, childClone, deep, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
