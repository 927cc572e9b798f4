// Package core exposes the transactional operations surface for lexicore
// projects: per-entity CRUD plus the duplication and synchronization
// operations backed by the generic engine.
package core

import "lexicore/pkg/lexicon"

type (
	EntityType    = lexicon.EntityType
	FieldShape    = lexicon.FieldShape
	MultiText     = lexicon.MultiText
	Snapshot      = lexicon.Snapshot
	PropertyValue = lexicon.PropertyValue
	Delta         = lexicon.Delta
	DiffResult    = lexicon.DiffResult
	Change        = lexicon.Change
	Action        = lexicon.Action
	Entity        = lexicon.Entity
	Graph         = lexicon.Graph
	ProjectStore  = lexicon.ProjectStore
)

const (
	EntityEntry          = lexicon.EntityEntry
	EntitySense          = lexicon.EntitySense
	EntityExample        = lexicon.EntityExample
	EntityEtymology      = lexicon.EntityEtymology
	EntityPhoneme        = lexicon.EntityPhoneme
	EntityPhonemeClass   = lexicon.EntityPhonemeClass
	EntityChart          = lexicon.EntityChart
	EntityChartRow       = lexicon.EntityChartRow
	EntityWordform       = lexicon.EntityWordform
	EntitySemanticDomain = lexicon.EntitySemanticDomain
	EntityMorphType      = lexicon.EntityMorphType
	EntityDialect        = lexicon.EntityDialect
)

const (
	ActionCreate    = lexicon.ActionCreate
	ActionUpdate    = lexicon.ActionUpdate
	ActionDelete    = lexicon.ActionDelete
	ActionDuplicate = lexicon.ActionDuplicate
)
