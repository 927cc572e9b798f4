package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"lexicore/pkg/lexicon"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "project.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var entryID string
	_, err = store.RunInTransaction(ctx, func(g lexicon.Graph) error {
		entry, cErr := g.Create(lexicon.EntityEntry)
		if cErr != nil {
			return cErr
		}
		if aErr := g.Append(lexicon.RootCollection(lexicon.EntityEntry), entry); aErr != nil {
			return aErr
		}
		entryID = entry.Identity()
		return g.SetText(entry, lexicon.FieldLexemeForm, lexicon.MultiText{"en": "water"})
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	err = reopened.View(ctx, func(g lexicon.Graph) error {
		entry, ok := g.Resolve(entryID)
		if !ok {
			t.Fatalf("entry %s not restored", entryID)
		}
		text, tErr := g.Text(entry, lexicon.FieldLexemeForm)
		if tErr != nil {
			return tErr
		}
		if v, _ := text.Get("en"); v != "water" {
			t.Fatalf("lexeme form = %v", text)
		}
		roots := g.Roots(lexicon.EntityEntry)
		if len(roots) != 1 || roots[0].Identity() != entryID {
			t.Fatalf("roots = %v", roots)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestStoreDoesNotPersistFailedTransaction(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "project.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(g lexicon.Graph) error {
		if _, cErr := g.Create(lexicon.EntityPhoneme); cErr != nil {
			return cErr
		}
		_, cErr := g.Create("not-a-type")
		return cErr
	})
	if err == nil {
		t.Fatal("expected transaction failure")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	err = reopened.View(ctx, func(g lexicon.Graph) error {
		if roots := g.Roots(lexicon.EntityPhoneme); len(roots) != 0 {
			t.Fatalf("roots = %v", roots)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestStoreDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if store.Path() != "lexicore.db" {
		t.Fatalf("path = %s", store.Path())
	}
	if store.DB() == nil {
		t.Fatal("expected a live database handle")
	}
}
