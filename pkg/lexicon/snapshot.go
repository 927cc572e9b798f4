package lexicon

import "sort"

// PropertyValue is the pure-value form of one syncable field. Exactly one of
// the payload members is meaningful, selected by Shape. Owned shapes never
// appear in snapshots.
type PropertyValue struct {
	Shape FieldShape `json:"shape"`
	Text  MultiText  `json:"text,omitempty"`
	Ref   string     `json:"ref,omitempty"`
	Refs  []string   `json:"refs,omitempty"`
}

// TextValue builds a localized-text property value.
func TextValue(text MultiText) PropertyValue {
	return PropertyValue{Shape: ShapeLocalizedText, Text: text}
}

// RefValue builds an atomic-reference property value. Empty means unset.
func RefValue(id string) PropertyValue {
	return PropertyValue{Shape: ShapeAtomicReference, Ref: id}
}

// RefSetValue builds a reference-set property value.
func RefSetValue(ids []string) PropertyValue {
	return PropertyValue{Shape: ShapeReferenceSet, Refs: ids}
}

// EmptyValue returns the shape's empty value, used when one side of a diff is
// missing a field entirely.
func EmptyValue(shape FieldShape) PropertyValue {
	return PropertyValue{Shape: shape}
}

// Equal compares two property values under the shape's equality rule:
// localized text key-for-key, atomic references by identity string, and
// reference sets as sets.
func (v PropertyValue) Equal(other PropertyValue) bool {
	if v.Shape != other.Shape {
		return false
	}
	switch v.Shape {
	case ShapeLocalizedText:
		return v.Text.Equal(other.Text)
	case ShapeAtomicReference:
		return v.Ref == other.Ref
	case ShapeReferenceSet:
		return sameIDSet(v.Refs, other.Refs)
	default:
		return true
	}
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
		if seen[id] < 0 {
			return false
		}
	}
	return true
}

// Snapshot is a short-lived, comparable capture of one entity's non-owned
// field values keyed by field name. It holds no live entity references, so
// snapshots taken against different project stores remain comparable.
type Snapshot struct {
	Entity EntityType               `json:"entity"`
	ID     string                   `json:"id"`
	Props  map[string]PropertyValue `json:"props"`
}

// FieldNames returns the captured field names in sorted order.
func (s Snapshot) FieldNames() []string {
	if len(s.Props) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Props))
	for name := range s.Props {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Delta pairs the diverging values of one field.
type Delta struct {
	Old PropertyValue `json:"old"`
	New PropertyValue `json:"new"`
}

// DiffResult reports the fields on which two snapshots diverge. It is
// ephemeral and consumed immediately by merge tooling.
type DiffResult struct {
	Different bool             `json:"different"`
	Fields    map[string]Delta `json:"fields,omitempty"`
}

// FieldNames returns the diverging field names in sorted order.
func (r DiffResult) FieldNames() []string {
	if len(r.Fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
