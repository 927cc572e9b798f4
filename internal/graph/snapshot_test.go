package graph

import (
	"context"
	"testing"

	"lexicore/pkg/lexicon"
)

func buildSampleProject(t *testing.T, s *Store) (entryID, senseID, domainID string) {
	t.Helper()
	_, err := s.RunInTransaction(context.Background(), func(g lexicon.Graph) error {
		domain, err := g.Create(lexicon.EntitySemanticDomain)
		if err != nil {
			return err
		}
		if err := g.Append(lexicon.RootCollection(lexicon.EntitySemanticDomain), domain); err != nil {
			return err
		}
		domainID = domain.Identity()

		entry, err := g.Create(lexicon.EntityEntry)
		if err != nil {
			return err
		}
		if err := g.Append(lexicon.RootCollection(lexicon.EntityEntry), entry); err != nil {
			return err
		}
		entryID = entry.Identity()
		if err := g.SetText(entry, lexicon.FieldLexemeForm, lexicon.MultiText{"en": "water"}); err != nil {
			return err
		}

		sense, err := g.Create(lexicon.EntitySense)
		if err != nil {
			return err
		}
		if err := g.Append(lexicon.OwnedCollection(entry, lexicon.FieldSenses), sense); err != nil {
			return err
		}
		senseID = sense.Identity()
		if err := g.SetRefSet(sense, lexicon.FieldSemanticDomains, []string{domainID}); err != nil {
			return err
		}

		etym, err := g.Create(lexicon.EntityEtymology)
		if err != nil {
			return err
		}
		return g.SetChild(entry, lexicon.FieldEtymology, etym)
	})
	if err != nil {
		t.Fatalf("build project: %v", err)
	}
	return entryID, senseID, domainID
}

func TestExportImportRoundtrip(t *testing.T) {
	src := NewStore()
	entryID, senseID, domainID := buildSampleProject(t, src)

	snapshot := src.ExportState()
	dst := NewStore()
	if err := dst.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}

	err := dst.View(context.Background(), func(g lexicon.Graph) error {
		entry, ok := g.Resolve(entryID)
		if !ok {
			t.Fatalf("entry %s missing after import", entryID)
		}
		text, err := g.Text(entry, lexicon.FieldLexemeForm)
		if err != nil {
			return err
		}
		if v, _ := text.Get("en"); v != "water" {
			t.Fatalf("lexeme form = %v", text)
		}
		children, err := g.Children(entry, lexicon.FieldSenses)
		if err != nil {
			return err
		}
		if len(children) != 1 || children[0].Identity() != senseID {
			t.Fatalf("senses = %v", children)
		}
		refs, err := g.RefSet(children[0], lexicon.FieldSemanticDomains)
		if err != nil {
			return err
		}
		if len(refs) != 1 || refs[0] != domainID {
			t.Fatalf("domains = %v", refs)
		}
		if _, ok, err := g.Child(entry, lexicon.FieldEtymology); err != nil || !ok {
			t.Fatalf("etymology missing: ok=%v err=%v", ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestImportDoesNotRecordChanges(t *testing.T) {
	src := NewStore()
	buildSampleProject(t, src)

	dst := NewStore()
	if err := dst.ImportState(src.ExportState()); err != nil {
		t.Fatalf("import: %v", err)
	}
	changes, err := dst.RunInTransaction(context.Background(), func(lexicon.Graph) error { return nil })
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("import leaked change records: %v", changes)
	}
}

func TestMigrateDropsUnknownTypes(t *testing.T) {
	snapshot := Snapshot{
		Records: map[string]Record{
			"a": {Type: lexicon.EntityEntry},
			"b": {Type: lexicon.EntityType("ghost")},
		},
		Roots: map[lexicon.EntityType][]string{
			lexicon.EntityEntry:         {"a", "b"},
			lexicon.EntityType("ghost"): {"b"},
		},
	}
	s := NewStore()
	if err := s.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	err := s.View(context.Background(), func(g lexicon.Graph) error {
		if _, ok := g.Resolve("b"); ok {
			t.Fatal("unknown-typed record survived migration")
		}
		if len(g.Roots(lexicon.EntityEntry)) != 1 {
			t.Fatalf("roots = %v", g.Roots(lexicon.EntityEntry))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestMigrateDropsDanglingReferences(t *testing.T) {
	snapshot := Snapshot{
		Records: map[string]Record{
			"entry1": {
				Type: lexicon.EntityEntry,
				Refs: map[string]string{lexicon.FieldMorphType: "missing"},
			},
			"class1": {
				Type:    lexicon.EntityPhonemeClass,
				RefSets: map[string][]string{lexicon.FieldSegments: {"p1", "missing"}},
			},
			"p1": {Type: lexicon.EntityPhoneme},
		},
		Roots: map[lexicon.EntityType][]string{
			lexicon.EntityEntry:        {"entry1"},
			lexicon.EntityPhonemeClass: {"class1"},
			lexicon.EntityPhoneme:      {"p1"},
		},
	}
	s := NewStore()
	if err := s.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	err := s.View(context.Background(), func(g lexicon.Graph) error {
		entry, _ := g.Resolve("entry1")
		ref, err := g.Ref(entry, lexicon.FieldMorphType)
		if err != nil {
			return err
		}
		if ref != "" {
			t.Fatalf("dangling ref survived: %q", ref)
		}
		class, _ := g.Resolve("class1")
		refs, err := g.RefSet(class, lexicon.FieldSegments)
		if err != nil {
			return err
		}
		if len(refs) != 1 || refs[0] != "p1" {
			t.Fatalf("segments = %v", refs)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestMigrateDropsOrphanRecords(t *testing.T) {
	snapshot := Snapshot{
		Records: map[string]Record{
			"entry1":   {Type: lexicon.EntityEntry},
			"orphaned": {Type: lexicon.EntitySense},
		},
		Roots: map[lexicon.EntityType][]string{
			lexicon.EntityEntry: {"entry1"},
		},
	}
	s := NewStore()
	if err := s.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	err := s.View(context.Background(), func(g lexicon.Graph) error {
		if _, ok := g.Resolve("orphaned"); ok {
			t.Fatal("unreachable record survived migration")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestImportRejectsDoubleOwnership(t *testing.T) {
	snapshot := Snapshot{
		Records: map[string]Record{
			"entry1": {
				Type:      lexicon.EntityEntry,
				Sequences: map[string][]string{lexicon.FieldSenses: {"sense1"}},
			},
			"entry2": {
				Type:      lexicon.EntityEntry,
				Sequences: map[string][]string{lexicon.FieldSenses: {"sense1"}},
			},
			"sense1": {Type: lexicon.EntitySense},
		},
		Roots: map[lexicon.EntityType][]string{
			lexicon.EntityEntry: {"entry1", "entry2"},
		},
	}
	s := NewStore()
	if err := s.ImportState(snapshot); err == nil {
		t.Fatal("expected owned-twice error")
	}
}

func TestExportIsDeepCopy(t *testing.T) {
	s := NewStore()
	entryID, _, _ := buildSampleProject(t, s)

	snapshot := s.ExportState()
	snapshot.Records[entryID].Texts[lexicon.FieldLexemeForm]["en"] = "tampered"

	err := s.View(context.Background(), func(g lexicon.Graph) error {
		entry, _ := g.Resolve(entryID)
		text, _ := g.Text(entry, lexicon.FieldLexemeForm)
		if v, _ := text.Get("en"); v != "water" {
			t.Fatalf("export aliased live state: %q", v)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
