// Package export turns a collection snapshot into the compressed per-tag
// record stream consumed downstream.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/agentic-research/tagtree/api"
	"github.com/agentic-research/tagtree/internal/collection"
	"github.com/agentic-research/tagtree/internal/hierarchy"
	"github.com/agentic-research/tagtree/internal/logging"
	"github.com/agentic-research/tagtree/internal/metrics"
	"github.com/agentic-research/tagtree/internal/rollup"
)

// Summary describes a finished run.
type Summary struct {
	RunID          string
	Service        string
	Path           string
	RecordCount    int
	UniqueCards    int
	ParentOnlyTags int
	Elapsed        time.Duration
}

// Exporter runs the pipeline for one service:
// load, index, build hierarchy, aggregate, compute metrics, assemble, write.
type Exporter struct {
	Service  Service
	Source   collection.Source
	Sink     billy.Filesystem
	Level    int
	Username string

	// Now defaults to time.Now.
	Now func() time.Time
	Log *logging.Logger
}

// Run exports the service to "<slug>_<user>_<stamp>.ndjson.gz".
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	now := e.now()
	return e.run(ctx, e.Service.FileName(e.Username, now), Meta{
		ServiceName: e.Service.DisplayName,
		Timestamp:   now,
	})
}

// RunUnified exports every tag to "unified_export_<stamp>.ndjson.gz" with the
// unified markers set. When clear is true, regular files already in the sink
// root are removed first; failures to remove are logged, not fatal.
func (e *Exporter) RunUnified(ctx context.Context, clear bool) (*Summary, error) {
	if clear && e.Sink != nil {
		e.clearSink()
	}
	now := e.now()
	return e.run(ctx, UnifiedFileName(now), Meta{
		ServiceName:   e.Service.DisplayName,
		Timestamp:     now,
		SourceStep:    "AllTags",
		UnifiedExport: true,
	})
}

func (e *Exporter) run(ctx context.Context, name string, meta Meta) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.logger().With("run_id", runID, "service", e.Service.Name)

	if e.Source == nil {
		return nil, fail("load", ErrInputUnavailable, errors.New("no collection source"))
	}
	if e.Sink == nil {
		return nil, fail("sink", ErrSink, errNoSink)
	}
	snap, err := e.Source.Load(ctx)
	if err != nil {
		return nil, fail("load", ErrInputUnavailable, err)
	}
	if snap == nil {
		return nil, fail("load", ErrInputUnavailable, errors.New("source returned no snapshot"))
	}
	log.Info("Snapshot loaded", "cards", snap.Len(), "notes", snap.NoteCount(),
		"reviews", snap.ReviewCount(), "elapsed", time.Since(start))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, res, idx := e.compute(snap, meta, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := time.Now()
	w := &Writer{FS: e.Sink, Level: e.Level}
	path, err := w.Write(ctx, name, records)
	if err != nil {
		log.Error("Export failed", "error", err)
		return nil, err
	}
	log.Info("Export written", "path", path, "records", len(records), "elapsed", time.Since(t))

	return &Summary{
		RunID:          runID,
		Service:        e.Service.DisplayName,
		Path:           path,
		RecordCount:    len(records),
		UniqueCards:    idx.UniqueCards(),
		ParentOnlyTags: res.ParentOnlyCount(),
		Elapsed:        time.Since(start),
	}, nil
}

func (e *Exporter) compute(snap *collection.Snapshot, meta Meta, log *logging.Logger) ([]api.ExportRecord, *rollup.Result, *rollup.Index) {
	t := time.Now()
	idx := rollup.IndexSnapshot(snap, e.Service.Accept)
	log.Info("Tags indexed", "tags", idx.Len(), "unique_cards", idx.UniqueCards(), "elapsed", time.Since(t))

	t = time.Now()
	forest := hierarchy.FromTags(idx.Tags())
	log.Info("Hierarchy built", "nodes", forest.Len(), "elapsed", time.Since(t))

	t = time.Now()
	res := rollup.Aggregate(idx, forest)
	log.Info("Hierarchical counts computed", "nodes", res.Len(),
		"parent_only", res.ParentOnlyCount(), "elapsed", time.Since(t))

	t = time.Now()
	records := Assemble(res, metrics.NewComputer(snap), meta)
	log.Info("Records assembled", "records", len(records), "elapsed", time.Since(t))
	return records, res, idx
}

// Stats loads the snapshot and summarizes the service's tag hierarchy.
func (e *Exporter) Stats(ctx context.Context) (rollup.Stats, error) {
	if e.Source == nil {
		return rollup.Stats{}, fail("load", ErrInputUnavailable, errors.New("no collection source"))
	}
	snap, err := e.Source.Load(ctx)
	if err != nil {
		return rollup.Stats{}, fail("load", ErrInputUnavailable, err)
	}
	idx := rollup.IndexSnapshot(snap, e.Service.Accept)
	return rollup.Summarize(idx, hierarchy.FromTags(idx.Tags())), nil
}

func (e *Exporter) clearSink() {
	log := e.logger()
	entries, err := e.Sink.ReadDir("/")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn("Could not list exports directory", "error", err)
		}
		return
	}
	for _, fi := range entries {
		if !fi.Mode().IsRegular() {
			continue
		}
		if err := e.Sink.Remove(fi.Name()); err != nil {
			log.Warn("Could not remove old export", "file", fi.Name(), "error", err)
			continue
		}
		log.Debug("Removed old export", "file", fi.Name())
	}
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) logger() *logging.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logging.Nop()
}

// String is used in log lines and CLI output.
func (s *Summary) String() string {
	return fmt.Sprintf("%s: %d records, %d unique cards, %d parent-only tags -> %s (%s)",
		s.Service, s.RecordCount, s.UniqueCards, s.ParentOnlyTags, s.Path, s.Elapsed.Round(time.Millisecond))
}
