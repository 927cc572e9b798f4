// Package lexicon defines the entity schema, value types, and error taxonomy
// shared by the lexicore graph store and duplication engine.
package lexicon

import (
	"sort"
	"time"
)

// EntityType identifies the type of node stored in the lexical graph.
type EntityType string

// Supported entity type identifiers used in Change records and snapshot buckets.
const (
	// EntityEntry identifies a lexical entry record.
	EntityEntry EntityType = "entry"
	// EntitySense identifies a sense owned by an entry.
	EntitySense EntityType = "sense"
	// EntityExample identifies an example sentence owned by a sense.
	EntityExample EntityType = "example"
	// EntityEtymology identifies the etymology record owned by an entry.
	EntityEtymology EntityType = "etymology"
	// EntityPhoneme identifies a phoneme segment record.
	EntityPhoneme EntityType = "phoneme"
	// EntityPhonemeClass identifies a natural class grouping phonemes.
	EntityPhonemeClass EntityType = "phoneme_class"
	// EntityChart identifies a chart record.
	EntityChart EntityType = "chart"
	// EntityChartRow identifies a row owned by a chart.
	EntityChartRow EntityType = "chart_row"
	// EntityWordform identifies an attested wordform record.
	EntityWordform EntityType = "wordform"
	// EntitySemanticDomain identifies a semantic domain record.
	EntitySemanticDomain EntityType = "semantic_domain"
	// EntityMorphType identifies a morpheme type record.
	EntityMorphType EntityType = "morph_type"
	// EntityDialect identifies a dialect label record.
	EntityDialect EntityType = "dialect"
)

// MultiText is a localized text value keyed by writing-system identifier.
// A missing key means no value was ever set in that writing system, which is
// distinct from an empty string entry.
type MultiText map[string]string

// Get returns the text stored for the writing system, if any.
func (m MultiText) Get(ws string) (string, bool) {
	v, ok := m[ws]
	return v, ok
}

// Set stores text under the writing system, allocating the map if needed.
func (m *MultiText) Set(ws, text string) {
	if *m == nil {
		*m = make(MultiText, 1)
	}
	(*m)[ws] = text
}

// Clone returns an independent copy of the value.
func (m MultiText) Clone() MultiText {
	if m == nil {
		return nil
	}
	cp := make(MultiText, len(m))
	for ws, text := range m {
		cp[ws] = text
	}
	return cp
}

// Compact returns a copy with empty-string entries removed. Nil is returned
// when nothing remains so empty and never-set values compare equal.
func (m MultiText) Compact() MultiText {
	var cp MultiText
	for ws, text := range m {
		if text == "" {
			continue
		}
		cp.Set(ws, text)
	}
	return cp
}

// Equal reports whether both values hold the same entries key-for-key.
func (m MultiText) Equal(other MultiText) bool {
	if len(m) != len(other) {
		return false
	}
	for ws, text := range m {
		if got, ok := other[ws]; !ok || got != text {
			return false
		}
	}
	return true
}

// WritingSystems returns the keyed writing systems in sorted order.
func (m MultiText) WritingSystems() []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for ws := range m {
		out = append(out, ws)
	}
	sort.Strings(out)
	return out
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	ID     string
	At     time.Time
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate graph operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity field was written.
	ActionUpdate Action = "update"
	// ActionDelete indicates an entity was removed.
	ActionDelete Action = "delete"
	// ActionDuplicate indicates an entity was produced by the cloner.
	ActionDuplicate Action = "duplicate"
)
