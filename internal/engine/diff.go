package engine

import (
	"sort"

	"lexicore/pkg/lexicon"
)

// Compare computes the fields on which two snapshots diverge. The snapshots
// may originate from different project stores; only identity strings and
// pure values are compared. A field present on one side only is compared
// against its shape's empty value — a missing key is a data state, not a
// structural error, and Compare never fails.
func (e *Engine) Compare(a, b lexicon.Snapshot) lexicon.DiffResult {
	fields := make(map[string]lexicon.FieldShape, len(a.Props)+len(b.Props))
	for name, value := range a.Props {
		fields[name] = value.Shape
	}
	for name, value := range b.Props {
		if _, ok := fields[name]; !ok {
			fields[name] = value.Shape
		}
	}

	result := lexicon.DiffResult{}
	for name, shape := range fields {
		oldValue, ok := a.Props[name]
		if !ok {
			oldValue = lexicon.EmptyValue(shape)
		}
		newValue, ok := b.Props[name]
		if !ok {
			newValue = lexicon.EmptyValue(shape)
		}
		oldValue = e.normalize(oldValue)
		newValue = e.normalize(newValue)
		if oldValue.Equal(newValue) {
			continue
		}
		if result.Fields == nil {
			result.Fields = make(map[string]lexicon.Delta)
		}
		result.Fields[name] = lexicon.Delta{Old: oldValue, New: newValue}
	}
	result.Different = len(result.Fields) > 0
	return result
}

// CompareEntities snapshots both entities against their graphs and diffs the
// results. The graphs may be two different open projects.
func (e *Engine) CompareEntities(ga lexicon.Graph, a lexicon.Entity, gb lexicon.Graph, b lexicon.Entity) (lexicon.DiffResult, error) {
	snapA, err := e.SyncableProperties(ga, a)
	if err != nil {
		return lexicon.DiffResult{}, err
	}
	snapB, err := e.SyncableProperties(gb, b)
	if err != nil {
		return lexicon.DiffResult{}, err
	}
	return e.Compare(snapA, snapB), nil
}

// normalize applies the shape's comparison rule before equality: localized
// text drops empty entries unless configured otherwise, and reference sets
// are canonicalized so ordering never influences the outcome.
func (e *Engine) normalize(v lexicon.PropertyValue) lexicon.PropertyValue {
	switch v.Shape {
	case lexicon.ShapeLocalizedText:
		if !e.keepEmptyText {
			v.Text = v.Text.Compact()
		}
	case lexicon.ShapeReferenceSet:
		if len(v.Refs) > 0 {
			refs := append([]string(nil), v.Refs...)
			sort.Strings(refs)
			v.Refs = refs
		}
	}
	return v
}
