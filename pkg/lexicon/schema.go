package lexicon

import "sort"

// FieldShape classifies how a declared field stores its value. Every field of
// every entity type has exactly one shape, fixed for the life of the schema.
type FieldShape string

const (
	// ShapeLocalizedText is a per-writing-system string map.
	ShapeLocalizedText FieldShape = "localized_text"
	// ShapeAtomicReference is a single non-owning pointer to another entity.
	ShapeAtomicReference FieldShape = "atomic_reference"
	// ShapeReferenceSet is an unordered collection of non-owning pointers.
	ShapeReferenceSet FieldShape = "reference_set"
	// ShapeOwnedSequence is an ordered list of owned child entities.
	ShapeOwnedSequence FieldShape = "owned_sequence"
	// ShapeOwnedSingle is at most one owned child entity.
	ShapeOwnedSingle FieldShape = "owned_single"
)

// Owning reports whether the shape binds child lifetime to the parent.
func (s FieldShape) Owning() bool {
	return s == ShapeOwnedSequence || s == ShapeOwnedSingle
}

// FieldSpec pairs an owned field with the entity type of its children.
type FieldSpec struct {
	Shape FieldShape
	// Child names the entity type stored in owned fields; empty otherwise.
	Child EntityType
}

// Declared field names. Identity, timestamps, and import residue are
// deliberately absent: fields outside these tables are invisible to the
// snapshot builder and the cloner.
const (
	FieldLexemeForm      = "LexemeForm"
	FieldCitationForm    = "CitationForm"
	FieldMorphType       = "MorphType"
	FieldMainDialect     = "MainDialect"
	FieldSenses          = "Senses"
	FieldEtymology       = "Etymology"
	FieldGloss           = "Gloss"
	FieldDefinition      = "Definition"
	FieldSemanticDomains = "SemanticDomains"
	FieldExamples        = "Examples"
	FieldSentence        = "Sentence"
	FieldTranslation     = "Translation"
	FieldForm            = "Form"
	FieldRepresentation  = "Representation"
	FieldDescription     = "Description"
	FieldName            = "Name"
	FieldAbbreviation    = "Abbreviation"
	FieldSegments        = "Segments"
	FieldRows            = "Rows"
	FieldLabel           = "Label"
	FieldMembers         = "Members"
	FieldAnalyses        = "Analyses"
	FieldSubdomains      = "Subdomains"
)

var schemaTables = map[EntityType]map[string]FieldSpec{
	EntityEntry: {
		FieldLexemeForm:   {Shape: ShapeLocalizedText},
		FieldCitationForm: {Shape: ShapeLocalizedText},
		FieldMorphType:    {Shape: ShapeAtomicReference},
		FieldMainDialect:  {Shape: ShapeAtomicReference},
		FieldSenses:       {Shape: ShapeOwnedSequence, Child: EntitySense},
		FieldEtymology:    {Shape: ShapeOwnedSingle, Child: EntityEtymology},
	},
	EntitySense: {
		FieldGloss:           {Shape: ShapeLocalizedText},
		FieldDefinition:      {Shape: ShapeLocalizedText},
		FieldSemanticDomains: {Shape: ShapeReferenceSet},
		FieldExamples:        {Shape: ShapeOwnedSequence, Child: EntityExample},
	},
	EntityExample: {
		FieldSentence:    {Shape: ShapeLocalizedText},
		FieldTranslation: {Shape: ShapeLocalizedText},
	},
	EntityEtymology: {
		FieldForm:  {Shape: ShapeLocalizedText},
		FieldGloss: {Shape: ShapeLocalizedText},
	},
	EntityPhoneme: {
		FieldRepresentation: {Shape: ShapeLocalizedText},
		FieldDescription:    {Shape: ShapeLocalizedText},
	},
	EntityPhonemeClass: {
		FieldName:         {Shape: ShapeLocalizedText},
		FieldAbbreviation: {Shape: ShapeLocalizedText},
		FieldSegments:     {Shape: ShapeReferenceSet},
	},
	EntityChart: {
		FieldName: {Shape: ShapeLocalizedText},
		FieldRows: {Shape: ShapeOwnedSequence, Child: EntityChartRow},
	},
	EntityChartRow: {
		FieldLabel:   {Shape: ShapeLocalizedText},
		FieldMembers: {Shape: ShapeReferenceSet},
	},
	EntityWordform: {
		FieldForm:     {Shape: ShapeLocalizedText},
		FieldAnalyses: {Shape: ShapeReferenceSet},
	},
	EntitySemanticDomain: {
		FieldName:         {Shape: ShapeLocalizedText},
		FieldAbbreviation: {Shape: ShapeLocalizedText},
		FieldSubdomains:   {Shape: ShapeOwnedSequence, Child: EntitySemanticDomain},
	},
	EntityMorphType: {
		FieldName:         {Shape: ShapeLocalizedText},
		FieldAbbreviation: {Shape: ShapeLocalizedText},
	},
	EntityDialect: {
		FieldName: {Shape: ShapeLocalizedText},
	},
}

// rootTypes enumerates entity types registered in flat root lists rather than
// owned by another entity's field.
var rootTypes = map[EntityType]bool{
	EntityEntry:          true,
	EntityPhoneme:        true,
	EntityPhonemeClass:   true,
	EntityChart:          true,
	EntityWordform:       true,
	EntitySemanticDomain: true,
	EntityMorphType:      true,
	EntityDialect:        true,
}

// KnownType reports whether the type tag has a declared schema table.
func KnownType(entity EntityType) bool {
	_, ok := schemaTables[entity]
	return ok
}

// RootType reports whether the type may be registered at the project root.
// Semantic domains double as owned children when nested under a parent domain.
func RootType(entity EntityType) bool {
	return rootTypes[entity]
}

// RootTypes returns all root-registrable entity types in sorted order.
func RootTypes() []EntityType {
	out := make([]EntityType, 0, len(rootTypes))
	for entity := range rootTypes {
		out = append(out, entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Classify resolves the declared shape of a field. It is a pure function of
// static schema knowledge and never consults live data.
func Classify(entity EntityType, field string) (FieldShape, error) {
	spec, err := FieldSpecFor(entity, field)
	if err != nil {
		return "", err
	}
	return spec.Shape, nil
}

// FieldSpecFor resolves the full field declaration including the owned child
// type for Owned* shapes.
func FieldSpecFor(entity EntityType, field string) (FieldSpec, error) {
	table, ok := schemaTables[entity]
	if !ok {
		return FieldSpec{}, UnknownFieldError{Entity: entity, Field: field}
	}
	spec, ok := table[field]
	if !ok {
		return FieldSpec{}, UnknownFieldError{Entity: entity, Field: field}
	}
	return spec, nil
}

// Fields enumerates the declared field names of a type in sorted order.
// Unknown types yield nil.
func Fields(entity EntityType) []string {
	table, ok := schemaTables[entity]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
