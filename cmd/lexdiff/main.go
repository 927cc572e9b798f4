// Program lexdiff compares two exported project snapshots and reports
// per-field divergence between entities that exist on both sides.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"lexicore/internal/engine"
	"lexicore/internal/graph"
	"lexicore/pkg/lexicon"
)

var exitFunc = os.Exit

func main() {
	basePath := flag.String("base", "", "path to the baseline snapshot export (JSON)")
	otherPath := flag.String("other", "", "path to the snapshot export to compare (JSON)")
	entityID := flag.String("entity", "", "restrict the comparison to one entity identity")
	keepEmpty := flag.Bool("keep-empty-text", false, "treat explicitly empty text entries as meaningful")
	flag.Parse()

	if *basePath == "" || *otherPath == "" {
		exitErr(fmt.Errorf("both -base and -other are required"))
	}

	baseStore, err := loadSnapshot(*basePath)
	if err != nil {
		exitErr(err)
	}
	otherStore, err := loadSnapshot(*otherPath)
	if err != nil {
		exitErr(err)
	}

	var opts []engine.Option
	if *keepEmpty {
		opts = append(opts, engine.WithKeepEmptyText(true))
	}

	report, err := diffStores(engine.New(opts...), baseStore, otherStore, *entityID)
	if err != nil {
		exitErr(err)
	}
	if len(report) == 0 {
		fmt.Println("snapshots match")
		return
	}
	for _, line := range report {
		fmt.Println(line)
	}
	exitFunc(1)
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, "lexdiff:", err)
	exitFunc(2)
}

func loadSnapshot(path string) (*graph.Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot graph.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	store := graph.NewStore()
	if err := store.ImportState(snapshot); err != nil {
		return nil, fmt.Errorf("import snapshot %s: %w", path, err)
	}
	return store, nil
}

// diffStores resolves matching identities across both stores and reports
// entities only present on one side, type mismatches, and field deltas.
func diffStores(eng *engine.Engine, base, other *graph.Store, onlyID string) ([]string, error) {
	baseState := base.ExportState()
	otherState := other.ExportState()

	ids := make([]string, 0, len(baseState.Records))
	seen := make(map[string]struct{}, len(baseState.Records))
	for id := range baseState.Records {
		ids = append(ids, id)
		seen[id] = struct{}{}
	}
	for id := range otherState.Records {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var report []string
	for _, id := range ids {
		if onlyID != "" && id != onlyID {
			continue
		}
		baseRec, inBase := baseState.Records[id]
		otherRec, inOther := otherState.Records[id]
		switch {
		case !inOther:
			report = append(report, fmt.Sprintf("%s (%s): only in base", id, baseRec.Type))
			continue
		case !inBase:
			report = append(report, fmt.Sprintf("%s (%s): only in other", id, otherRec.Type))
			continue
		case baseRec.Type != otherRec.Type:
			report = append(report, fmt.Sprintf("%s: type %s vs %s", id, baseRec.Type, otherRec.Type))
			continue
		}
		result, err := compareOne(eng, base, other, id)
		if err != nil {
			return nil, err
		}
		if !result.Different {
			continue
		}
		for _, field := range result.FieldNames() {
			delta := result.Fields[field]
			report = append(report, fmt.Sprintf("%s (%s) %s: %s -> %s", id, baseRec.Type, field, formatValue(delta.Old), formatValue(delta.New)))
		}
	}
	return report, nil
}

func compareOne(eng *engine.Engine, base, other *graph.Store, id string) (lexicon.DiffResult, error) {
	var result lexicon.DiffResult
	ctx := context.Background()
	err := base.View(ctx, func(gBase lexicon.Graph) error {
		return other.View(ctx, func(gOther lexicon.Graph) error {
			a, ok := gBase.Resolve(id)
			if !ok {
				return lexicon.NotFoundError{ID: id}
			}
			b, ok := gOther.Resolve(id)
			if !ok {
				return lexicon.NotFoundError{ID: id}
			}
			var cErr error
			result, cErr = eng.CompareEntities(gBase, a, gOther, b)
			return cErr
		})
	})
	return result, err
}

func formatValue(value lexicon.PropertyValue) string {
	switch value.Shape {
	case lexicon.ShapeLocalizedText:
		if len(value.Text) == 0 {
			return "<empty>"
		}
		parts := make([]string, 0, len(value.Text))
		for _, ws := range value.Text.WritingSystems() {
			parts = append(parts, ws+"="+value.Text[ws])
		}
		return strings.Join(parts, ";")
	case lexicon.ShapeAtomicReference:
		if value.Ref == "" {
			return "<empty>"
		}
		return value.Ref
	case lexicon.ShapeReferenceSet:
		if len(value.Refs) == 0 {
			return "<empty>"
		}
		return strings.Join(value.Refs, ",")
	default:
		return "<empty>"
	}
}
