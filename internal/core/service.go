package core

import (
	"context"
	"fmt"
	"time"

	"lexicore/internal/engine"
	"lexicore/pkg/lexicon"
)

// Service exposes higher-level transactional operations for one open
// project. Every operation runs to completion before returning; callers
// serialize access per the single-writer model.
type Service struct {
	store   ProjectStore
	engine  *engine.Engine
	metrics MetricsRecorder
}

// ServiceOption configures service construction.
type ServiceOption func(*Service)

// WithMetricsRecorder installs a metrics recorder observed once per operation.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = rec }
}

// WithEngine replaces the default duplication engine, e.g. to preserve
// explicit empty-text entries in comparisons.
func WithEngine(e *engine.Engine) ServiceOption {
	return func(s *Service) { s.engine = e }
}

// NewService constructs a service backed by the supplied store.
func NewService(store ProjectStore, opts ...ServiceOption) *Service {
	s := &Service{store: store, engine: engine.New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying project store.
func (s *Service) Store() ProjectStore { return s.store }

// Engine returns the configured duplication engine.
func (s *Service) Engine() *engine.Engine { return s.engine }

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
}

func resolve(g Graph, id string) (Entity, error) {
	e, ok := g.Resolve(id)
	if !ok {
		return nil, lexicon.NotFoundError{ID: id}
	}
	return e, nil
}

// CreateRoot mints a new root-level entity of the given type and registers
// it at the end of the type's registration list.
func (s *Service) CreateRoot(ctx context.Context, entity EntityType) (id string, changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "create_root", start, err) }()
	changes, err = s.store.RunInTransaction(ctx, func(g Graph) error {
		created, cErr := g.Create(entity)
		if cErr != nil {
			return cErr
		}
		if aErr := g.Append(lexicon.RootCollection(entity), created); aErr != nil {
			return aErr
		}
		id = created.Identity()
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return id, changes, nil
}

// AddOwnedChild creates a child under the parent's owned field: appended for
// sequences, assigned for single-child fields.
func (s *Service) AddOwnedChild(ctx context.Context, parentID, field string) (id string, changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "add_owned_child", start, err) }()
	changes, err = s.store.RunInTransaction(ctx, func(g Graph) error {
		parent, rErr := resolve(g, parentID)
		if rErr != nil {
			return rErr
		}
		spec, sErr := lexicon.FieldSpecFor(parent.Type(), field)
		if sErr != nil {
			return sErr
		}
		if !spec.Shape.Owning() {
			return fmt.Errorf("field %s of %s is %s, not an owned field", field, parent.Type(), spec.Shape)
		}
		child, cErr := g.Create(spec.Child)
		if cErr != nil {
			return cErr
		}
		if spec.Shape == lexicon.ShapeOwnedSequence {
			if aErr := g.Append(lexicon.OwnedCollection(parent, field), child); aErr != nil {
				return aErr
			}
		} else if scErr := g.SetChild(parent, field, child); scErr != nil {
			return scErr
		}
		id = child.Identity()
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return id, changes, nil
}

// DeleteEntity removes the entity and its owned descendants.
func (s *Service) DeleteEntity(ctx context.Context, id string) (changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "delete_entity", start, err) }()
	return s.store.RunInTransaction(ctx, func(g Graph) error {
		e, rErr := resolve(g, id)
		if rErr != nil {
			return rErr
		}
		return g.Delete(e)
	})
}

// SetText writes a localized-text field.
func (s *Service) SetText(ctx context.Context, id, field string, value MultiText) (changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "set_text", start, err) }()
	return s.store.RunInTransaction(ctx, func(g Graph) error {
		e, rErr := resolve(g, id)
		if rErr != nil {
			return rErr
		}
		return g.SetText(e, field, value)
	})
}

// SetRef points an atomic reference field at target, or clears it when
// target is empty.
func (s *Service) SetRef(ctx context.Context, id, field, target string) (changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "set_ref", start, err) }()
	return s.store.RunInTransaction(ctx, func(g Graph) error {
		e, rErr := resolve(g, id)
		if rErr != nil {
			return rErr
		}
		return g.SetRef(e, field, target)
	})
}

// SetRefSet replaces a reference-set field.
func (s *Service) SetRefSet(ctx context.Context, id, field string, targets []string) (changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "set_ref_set", start, err) }()
	return s.store.RunInTransaction(ctx, func(g Graph) error {
		e, rErr := resolve(g, id)
		if rErr != nil {
			return rErr
		}
		return g.SetRefSet(e, field, targets)
	})
}

// ListRoots returns the registered identities of a root type in order.
func (s *Service) ListRoots(ctx context.Context, entity EntityType) ([]string, error) {
	var ids []string
	err := s.store.View(ctx, func(g Graph) error {
		for _, e := range g.Roots(entity) {
			ids = append(ids, e.Identity())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Duplicate clones the identified entity into its parent collection.
// insertAfter places the clone directly after the source; deep recursively
// clones owned structure.
func (s *Service) Duplicate(ctx context.Context, id string, insertAfter, deep bool) (string, []Change, error) {
	return s.duplicate(ctx, "", id, insertAfter, deep)
}

func (s *Service) duplicate(ctx context.Context, want EntityType, id string, insertAfter, deep bool) (cloneID string, changes []Change, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "duplicate", start, err) }()
	changes, err = s.store.RunInTransaction(ctx, func(g Graph) error {
		source, rErr := resolve(g, id)
		if rErr != nil {
			return rErr
		}
		if want != "" && source.Type() != want {
			return fmt.Errorf("entity %q is %s, not %s", id, source.Type(), want)
		}
		clone, dErr := s.engine.Duplicate(g, source, insertAfter, deep)
		if dErr != nil {
			return dErr
		}
		cloneID = clone.Identity()
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	created := createChangeFor(changes, cloneID)
	changes = append(changes, Change{Entity: created.Entity, Action: ActionDuplicate, ID: cloneID, At: created.At})
	return cloneID, changes, nil
}

// createChangeFor recovers the create change the transaction recorded for
// the clone. The synthetic duplicate change reuses its type tag and
// store-stamped timestamp.
func createChangeFor(changes []Change, id string) Change {
	for _, change := range changes {
		if change.ID == id && change.Action == ActionCreate {
			return change
		}
	}
	return Change{}
}

// SyncableProperties captures the entity's non-owned fields as a snapshot
// suitable for cross-project comparison.
func (s *Service) SyncableProperties(ctx context.Context, id string) (snap Snapshot, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "syncable_properties", start, err) }()
	err = s.store.View(ctx, func(g Graph) error {
		e, rErr := resolve(g, id)
		if rErr != nil {
			return rErr
		}
		var sErr error
		snap, sErr = s.engine.SyncableProperties(g, e)
		return sErr
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Compare diffs two entities of this project by identity.
func (s *Service) Compare(ctx context.Context, idA, idB string) (result DiffResult, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "compare", start, err) }()
	err = s.store.View(ctx, func(g Graph) error {
		a, rErr := resolve(g, idA)
		if rErr != nil {
			return rErr
		}
		b, rErr := resolve(g, idB)
		if rErr != nil {
			return rErr
		}
		var cErr error
		result, cErr = s.engine.CompareEntities(g, a, g, b)
		return cErr
	})
	if err != nil {
		return DiffResult{}, err
	}
	return result, nil
}

// CompareSnapshots diffs two snapshots, typically captured from different
// project copies of the same logical entity.
func (s *Service) CompareSnapshots(a, b Snapshot) DiffResult {
	return s.engine.Compare(a, b)
}
