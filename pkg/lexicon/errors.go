package lexicon

import "fmt"

// NotWritableError reports an attempted mutation against a read-only project.
// It is always surfaced to the caller and never retried.
type NotWritableError struct {
	Entity EntityType
}

func (e NotWritableError) Error() string {
	if e.Entity == "" {
		return "project is not writable"
	}
	return fmt.Sprintf("project is not writable: cannot mutate %s", e.Entity)
}

// InvalidSourceError reports a duplicate request whose source entity has no
// resolvable owner or root registration list.
type InvalidSourceError struct {
	Entity EntityType
	ID     string
}

func (e InvalidSourceError) Error() string {
	return fmt.Sprintf("%s %q has no owning collection to duplicate into", e.Entity, e.ID)
}

// UnknownFieldError reports a schema lookup for a field that is not part of
// the declared table for the entity type. It indicates a programming error in
// the caller, never a data state.
type UnknownFieldError struct {
	Entity EntityType
	Field  string
}

func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("field %q is not declared for entity type %s", e.Field, e.Entity)
}

// NotFoundError reports a lookup for an identity absent from the graph.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("entity %q not found", e.ID)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}
