// Package archive renders project snapshots into downloadable artifacts
// through an asynchronous worker backed by a blob store.
package archive

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"lexicore/internal/blob"
	"lexicore/internal/graph"
	"lexicore/pkg/lexicon"
)

// Format identifies an artifact rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures a stored export artifact.
type Artifact struct {
	ID          string    `json:"id"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and resulting artifacts.
type Record struct {
	ID          string               `json:"id"`
	Scope       []lexicon.EntityType `json:"scope,omitempty"`
	Formats     []Format             `json:"formats"`
	Status      Status               `json:"status"`
	Error       string               `json:"error,omitempty"`
	Artifacts   []Artifact           `json:"artifacts,omitempty"`
	RequestedBy string               `json:"requested_by"`
	Reason      string               `json:"reason,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

// Input represents an enqueue request for the worker. An empty Scope exports
// every entity type.
type Input struct {
	Scope       []lexicon.EntityType
	Formats     []Format
	RequestedBy string
	Reason      string
}

// StateSource yields the current project state. All graph-backed stores
// satisfy it.
type StateSource interface {
	ExportState() graph.Snapshot
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for exports.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Worker executes archive exports asynchronously.
type Worker struct {
	source StateSource
	store  blob.Store
	audit  AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewWorker constructs an export worker.
func NewWorker(source StateSource, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if w.source == nil {
		return Record{}, fmt.Errorf("export source not configured")
	}
	for _, entity := range input.Scope {
		if !lexicon.KnownType(entity) {
			return Record{}, fmt.Errorf("unknown entity type %s", entity)
		}
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		if format != FormatJSON && format != FormatCSV {
			return Record{}, fmt.Errorf("unsupported export format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		Scope:       append([]lexicon.EntityType(nil), input.Scope...),
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.record(ctx, AuditEntry{
		ID:         newID(),
		Action:     "archive_export",
		Actor:      input.RequestedBy,
		Status:     StatusQueued,
		Reason:     input.Reason,
		OccurredAt: now,
	})

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		w.fail(id, "export queue full")
		rejected, _ := w.Get(id)
		return rejected, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return Record{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

func (w *Worker) process(t task) {
	w.mu.RLock()
	record, ok := w.jobs[t.id]
	var formats []Format
	if ok {
		formats = append([]Format(nil), record.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.updateStatus(t.id, StatusRunning, "")

	state := filterScope(w.source.ExportState(), t.input.Scope)
	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		artifact, payload, err := render(format, state)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		if w.store != nil {
			key := fmt.Sprintf("archives/%s/export.%s", t.id, format)
			info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: artifact.ContentType})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact failed: %v", err))
				return
			}
			artifact.Key = info.Key
			artifact.URL = info.URL
			if info.Size > 0 {
				artifact.SizeBytes = info.Size
			}
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(t.id, artifacts)
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "archive_export",
		Actor:      w.actorFor(id),
		Status:     status,
		Note:       message,
		OccurredAt: now,
	})
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "archive_export",
		Actor:      w.actorFor(id),
		Status:     StatusSucceeded,
		OccurredAt: now,
	})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "archive_export",
		Actor:      w.actorFor(id),
		Status:     StatusFailed,
		Note:       reason,
		OccurredAt: now,
	})
}

func (w *Worker) record(ctx context.Context, entry AuditEntry) {
	if w.audit != nil {
		w.audit.Record(ctx, entry)
	}
}

func (w *Worker) actorFor(id string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if record, ok := w.jobs[id]; ok {
		return record.RequestedBy
	}
	return ""
}

// filterScope restricts the snapshot to the requested entity types. An empty
// scope keeps everything.
func filterScope(state graph.Snapshot, scope []lexicon.EntityType) graph.Snapshot {
	if len(scope) == 0 {
		return state
	}
	keep := make(map[lexicon.EntityType]struct{}, len(scope))
	for _, entity := range scope {
		keep[entity] = struct{}{}
	}
	out := graph.Snapshot{
		Records: make(map[string]graph.Record),
		Roots:   make(map[lexicon.EntityType][]string),
	}
	for id, rec := range state.Records {
		if _, ok := keep[rec.Type]; ok {
			out.Records[id] = rec
		}
	}
	for entity, ids := range state.Roots {
		if _, ok := keep[entity]; ok {
			out.Roots[entity] = append([]string(nil), ids...)
		}
	}
	return out
}

func render(format Format, state graph.Snapshot) (Artifact, []byte, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return Artifact{}, nil, fmt.Errorf("marshal json: %w", err)
		}
		return Artifact{
			ID:          newID(),
			Format:      FormatJSON,
			ContentType: "application/json",
			SizeBytes:   int64(len(payload)),
			CreatedAt:   time.Now().UTC(),
		}, payload, nil
	case FormatCSV:
		payload, err := renderCSV(state)
		if err != nil {
			return Artifact{}, nil, err
		}
		return Artifact{
			ID:          newID(),
			Format:      FormatCSV,
			ContentType: "text/csv",
			SizeBytes:   int64(len(payload)),
			CreatedAt:   time.Now().UTC(),
		}, payload, nil
	default:
		return Artifact{}, nil, fmt.Errorf("unsupported export format %s", format)
	}
}

// renderCSV flattens the snapshot into one row per populated field.
func renderCSV(state graph.Snapshot) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"entity_id", "entity_type", "field", "value"}); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(state.Records))
	for id := range state.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rec := state.Records[id]
		for _, row := range fieldRows(rec) {
			if err := writer.Write([]string{id, string(rec.Type), row[0], row[1]}); err != nil {
				return nil, err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fieldRows(rec graph.Record) [][2]string {
	var rows [][2]string
	for _, field := range sortedKeys(rec.Texts) {
		rows = append(rows, [2]string{field, formatText(rec.Texts[field])})
	}
	for _, field := range sortedKeys(rec.Refs) {
		rows = append(rows, [2]string{field, rec.Refs[field]})
	}
	for _, field := range sortedKeys(rec.RefSets) {
		rows = append(rows, [2]string{field, strings.Join(rec.RefSets[field], ";")})
	}
	for _, field := range sortedKeys(rec.Sequences) {
		rows = append(rows, [2]string{field, strings.Join(rec.Sequences[field], ";")})
	}
	for _, field := range sortedKeys(rec.Singles) {
		rows = append(rows, [2]string{field, rec.Singles[field]})
	}
	return rows
}

func formatText(text lexicon.MultiText) string {
	parts := make([]string, 0, len(text))
	for _, ws := range text.WritingSystems() {
		parts = append(parts, ws+"="+text[ws])
	}
	return strings.Join(parts, ";")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r Record) copy() Record {
	dup := r
	dup.Scope = append([]lexicon.EntityType(nil), r.Scope...)
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
