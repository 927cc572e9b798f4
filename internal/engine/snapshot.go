package engine

import (
	"lexicore/pkg/lexicon"
)

// SyncableProperties captures the entity's non-owned declared fields as a
// pure-value snapshot. Owned structure is deliberately excluded: owned
// children carry their own identity and are compared at their own level, so
// flattening them here would both explode the value and hide which level
// actually diverged.
//
// The traversal is read-only. Missing values are captured as the shape's
// empty value, never as an error.
func (e *Engine) SyncableProperties(g lexicon.Graph, entity lexicon.Entity) (lexicon.Snapshot, error) {
	snap := lexicon.Snapshot{
		Entity: entity.Type(),
		ID:     entity.Identity(),
		Props:  make(map[string]lexicon.PropertyValue),
	}
	for _, field := range lexicon.Fields(entity.Type()) {
		spec, err := lexicon.FieldSpecFor(entity.Type(), field)
		if err != nil {
			return lexicon.Snapshot{}, err
		}
		switch spec.Shape {
		case lexicon.ShapeLocalizedText:
			value, err := g.Text(entity, field)
			if err != nil {
				return lexicon.Snapshot{}, err
			}
			if !e.keepEmptyText {
				value = value.Compact()
			}
			snap.Props[field] = lexicon.TextValue(value)
		case lexicon.ShapeAtomicReference:
			id, err := g.Ref(entity, field)
			if err != nil {
				return lexicon.Snapshot{}, err
			}
			snap.Props[field] = lexicon.RefValue(id)
		case lexicon.ShapeReferenceSet:
			ids, err := g.RefSet(entity, field)
			if err != nil {
				return lexicon.Snapshot{}, err
			}
			snap.Props[field] = lexicon.RefSetValue(ids)
		case lexicon.ShapeOwnedSequence, lexicon.ShapeOwnedSingle:
			// Owned fields never appear in snapshots.
		}
	}
	return snap, nil
}
