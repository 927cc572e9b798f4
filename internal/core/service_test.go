package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lexicore/internal/graph"
	"lexicore/pkg/lexicon"
)

type captureMetricsRecorder struct {
	mu       sync.Mutex
	observed []string
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := "error"
	if success {
		status = "success"
	}
	c.observed = append(c.observed, op+":"+status)
}

func (c *captureMetricsRecorder) has(entry string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, got := range c.observed {
		if got == entry {
			return true
		}
	}
	return false
}

func newTestService(opts ...ServiceOption) *Service {
	return NewService(graph.NewStore(), opts...)
}

func TestCreateRootAndListRoots(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	first, changes, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if first == "" {
		t.Fatal("expected an identity")
	}
	if len(changes) != 1 || changes[0].Action != ActionCreate || changes[0].ID != first {
		t.Fatalf("changes = %v", changes)
	}
	second, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}

	ids, err := svc.ListRoots(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("list roots: %v", err)
	}
	if len(ids) != 2 || ids[0] != first || ids[1] != second {
		t.Fatalf("roots = %v", ids)
	}
}

func TestCreateRootRejectsOwnedOnlyType(t *testing.T) {
	if _, _, err := newTestService().CreateRoot(context.Background(), EntitySense); err == nil {
		t.Fatal("expected error registering an owned-only type at the root")
	}
}

func TestAddOwnedChildSequenceAndSingle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	entryID, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	senseID, _, err := svc.AddOwnedChild(ctx, entryID, lexicon.FieldSenses)
	if err != nil {
		t.Fatalf("add sense: %v", err)
	}
	etymID, _, err := svc.AddOwnedChild(ctx, entryID, lexicon.FieldEtymology)
	if err != nil {
		t.Fatalf("add etymology: %v", err)
	}

	err = svc.Store().View(ctx, func(g Graph) error {
		entry, _ := g.Resolve(entryID)
		children, err := g.Children(entry, lexicon.FieldSenses)
		if err != nil {
			return err
		}
		if len(children) != 1 || children[0].Identity() != senseID {
			t.Fatalf("senses = %v", children)
		}
		child, ok, err := g.Child(entry, lexicon.FieldEtymology)
		if err != nil || !ok || child.Identity() != etymID {
			t.Fatalf("etymology = %v ok=%v err=%v", child, ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestAddOwnedChildRejectsNonOwnedField(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	entryID, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, _, err := svc.AddOwnedChild(ctx, entryID, lexicon.FieldLexemeForm); err == nil {
		t.Fatal("expected error for a non-owned field")
	}
}

func TestSetTextAndDuplicate(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	svc := newTestService(WithMetricsRecorder(metrics))

	entryID, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := svc.SetText(ctx, entryID, lexicon.FieldLexemeForm, MultiText{"en": "water"}); err != nil {
		t.Fatalf("set text: %v", err)
	}

	cloneID, changes, err := svc.DuplicateEntry(ctx, entryID, false, false)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if cloneID == entryID {
		t.Fatal("clone shares source identity")
	}
	var sawDuplicate bool
	for _, change := range changes {
		if change.Action == ActionDuplicate && change.ID == cloneID && change.Entity == EntityEntry {
			sawDuplicate = true
		}
	}
	if !sawDuplicate {
		t.Fatalf("no duplicate change recorded: %v", changes)
	}

	snap, err := svc.SyncableProperties(ctx, cloneID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if v, _ := snap.Props[lexicon.FieldLexemeForm].Text.Get("en"); v != "water" {
		t.Fatalf("clone lexeme form = %v", snap.Props[lexicon.FieldLexemeForm])
	}

	if !metrics.has("create_root:success") || !metrics.has("duplicate:success") {
		t.Fatalf("metrics = %v", metrics.observed)
	}
}

func TestTypedDuplicateRejectsMismatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	entryID, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	_, _, err = svc.DuplicatePhoneme(ctx, entryID, false, false)
	if err == nil || !strings.Contains(err.Error(), "not phoneme") {
		t.Fatalf("err = %v", err)
	}
}

func TestDuplicateMissingEntity(t *testing.T) {
	_, _, err := newTestService().Duplicate(context.Background(), "missing", false, false)
	var notFound lexicon.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCompareEntitiesInProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	a, _, err := svc.CreateRoot(ctx, EntityPhoneme)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _, err := svc.CreateRoot(ctx, EntityPhoneme)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetText(ctx, a, lexicon.FieldRepresentation, MultiText{"qaa-fonipa": "p"}); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if _, err := svc.SetText(ctx, b, lexicon.FieldRepresentation, MultiText{"qaa-fonipa": "b"}); err != nil {
		t.Fatalf("set text: %v", err)
	}

	result, err := svc.Compare(ctx, a, b)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if !result.Different {
		t.Fatal("expected divergence")
	}
	if _, ok := result.Fields[lexicon.FieldRepresentation]; !ok {
		t.Fatalf("fields = %v", result.FieldNames())
	}
}

func TestCompareSnapshotsAcrossProjects(t *testing.T) {
	ctx := context.Background()
	svcA := newTestService()
	svcB := newTestService()

	build := func(svc *Service, name string) Snapshot {
		id, _, err := svc.CreateRoot(ctx, EntityMorphType)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := svc.SetText(ctx, id, lexicon.FieldName, MultiText{"en": name}); err != nil {
			t.Fatalf("set text: %v", err)
		}
		snap, err := svc.SyncableProperties(ctx, id)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		return snap
	}

	snapA := build(svcA, "stem")
	snapB := build(svcB, "root")

	result := svcA.CompareSnapshots(snapA, snapB)
	if !result.Different {
		t.Fatal("expected divergence across projects")
	}
}

func TestDeleteEntity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id, _, err := svc.CreateRoot(ctx, EntityDialect)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.DeleteEntity(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.SyncableProperties(ctx, id); err == nil {
		t.Fatal("expected error reading deleted entity")
	}
	metrics := &captureMetricsRecorder{}
	svc = newTestService(WithMetricsRecorder(metrics))
	if _, err := svc.DeleteEntity(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing entity")
	}
	if !metrics.has("delete_entity:error") {
		t.Fatalf("metrics = %v", metrics.observed)
	}
}

func TestSetRefAcrossService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	entryID, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	morphID, _, err := svc.CreateRoot(ctx, EntityMorphType)
	if err != nil {
		t.Fatalf("create morph type: %v", err)
	}
	if _, err := svc.SetRef(ctx, entryID, lexicon.FieldMorphType, morphID); err != nil {
		t.Fatalf("set ref: %v", err)
	}
	snap, err := svc.SyncableProperties(ctx, entryID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Props[lexicon.FieldMorphType].Ref != morphID {
		t.Fatalf("morph ref = %+v", snap.Props[lexicon.FieldMorphType])
	}
}

func TestFailedOperationsObservedAsErrors(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	svc := newTestService(WithMetricsRecorder(metrics))

	if _, _, err := svc.Duplicate(ctx, "missing", false, false); err == nil {
		t.Fatal("expected duplicate failure")
	}
	if _, err := svc.SetText(ctx, "missing", lexicon.FieldLexemeForm, MultiText{"en": "x"}); err == nil {
		t.Fatal("expected set_text failure")
	}
	if _, _, err := svc.CreateRoot(ctx, EntitySense); err == nil {
		t.Fatal("expected create_root failure")
	}
	for _, want := range []string{"duplicate:error", "set_text:error", "create_root:error"} {
		if !metrics.has(want) {
			t.Fatalf("missing %s in metrics %v", want, metrics.observed)
		}
	}
	if metrics.has("duplicate:success") || metrics.has("set_text:success") || metrics.has("create_root:success") {
		t.Fatalf("failure observed as success: %v", metrics.observed)
	}
}

func TestDuplicateChangeSharesCreateTimestamp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	entryID, _, err := svc.CreateRoot(ctx, EntityEntry)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	cloneID, changes, err := svc.Duplicate(ctx, entryID, false, false)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	var created, duplicated *Change
	for i := range changes {
		if changes[i].ID != cloneID {
			continue
		}
		switch changes[i].Action {
		case ActionCreate:
			created = &changes[i]
		case ActionDuplicate:
			duplicated = &changes[i]
		}
	}
	if created == nil || duplicated == nil {
		t.Fatalf("changes = %v", changes)
	}
	if created.At.IsZero() || !duplicated.At.Equal(created.At) {
		t.Fatalf("duplicate stamped %v, create stamped %v", duplicated.At, created.At)
	}
	if duplicated.Entity != EntityEntry {
		t.Fatalf("duplicate entity = %s", duplicated.Entity)
	}
}
