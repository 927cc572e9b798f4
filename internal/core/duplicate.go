package core

import "context"

// Per-type duplication entry points. Each verifies the source's type before
// delegating, so callers get a precise error instead of a clone of the
// wrong kind of entity.

func (s *Service) DuplicateEntry(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityEntry, id, insertAfter, deep)
}

func (s *Service) DuplicateSense(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntitySense, id, insertAfter, deep)
}

func (s *Service) DuplicateExample(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityExample, id, insertAfter, deep)
}

func (s *Service) DuplicatePhoneme(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityPhoneme, id, insertAfter, deep)
}

func (s *Service) DuplicatePhonemeClass(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityPhonemeClass, id, insertAfter, deep)
}

func (s *Service) DuplicateChart(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityChart, id, insertAfter, deep)
}

func (s *Service) DuplicateChartRow(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityChartRow, id, insertAfter, deep)
}

func (s *Service) DuplicateWordform(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityWordform, id, insertAfter, deep)
}

func (s *Service) DuplicateSemanticDomain(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntitySemanticDomain, id, insertAfter, deep)
}

func (s *Service) DuplicateMorphType(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityMorphType, id, insertAfter, deep)
}

func (s *Service) DuplicateDialect(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, EntityDialect, id, insertAfter, deep)
}
