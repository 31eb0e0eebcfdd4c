// Package collector fetches raw content from outside sources and feeds it
// through the ingestion pipeline.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/poiesic/gleaner/ingestion"
)

// ErrNoResults is returned by Source.Fetch when the upstream query matched nothing.
var ErrNoResults = errors.New("no results")

// ErrPipelineRequired is returned when a Runner is created without a pipeline.
var ErrPipelineRequired = errors.New("pipeline is required")

// ErrUnknownSource is returned by Registry.Resolve for unregistered names.
var ErrUnknownSource = errors.New("is not registered")

// Entry is one fetched item with the label it is reported under.
type Entry struct {
	Label string // e.g. "📄 Title (2024)"
	Item  ingestion.Item
}

// Messages are the display lines a Source reports its runs with.
type Messages struct {
	Header        string // Precedes the per-item lines
	Empty         string // Upstream returned nothing
	NoneProcessed string // Every result was skipped
}

// Source is one upstream content provider.
type Source interface {
	Name() string
	// Fetch returns up to limit entries for query starting at cursor.
	// Entries already returned by an earlier call may be omitted.
	Fetch(ctx context.Context, query string, cursor, limit int) ([]Entry, error)
	Messages() Messages
}

// Registry maps source names to implementations.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry builds a registry holding sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: map[string]Source{}}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a source.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Name()] = s
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sources[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("source %s %w", name, ErrUnknownSource)
}

// Names lists registered sources in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Processor runs one item through ingestion.
type Processor interface {
	Process(ctx context.Context, item ingestion.Item, threshold float64) ingestion.Result
}

// Report is the outcome of one collection run.
type Report struct {
	Source  string
	Query   string
	Lines   []string
	Results []ingestion.Result
	Summary string // Display text for the whole run
}

// Accepted counts the items that were stored.
func (r Report) Accepted() int {
	n := 0
	for _, res := range r.Results {
		if res.Accepted {
			n++
		}
	}
	return n
}

// Recorder observes collector runs.
type Recorder interface {
	RecordCollection(source string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordCollection(string, error) {}

// Runner fetches from a Source and processes every entry.
type Runner struct {
	pipeline   Processor
	thresholds ingestion.Thresholds
	recorder   Recorder
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRecorder sets the collection recorder.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRunner creates a runner applying thresholds by source type.
func NewRunner(pipeline Processor, thresholds ingestion.Thresholds, logger *slog.Logger, opts ...RunnerOption) (*Runner, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		pipeline:   pipeline,
		thresholds: thresholds,
		recorder:   noopRecorder{},
		logger:     logger.With("component", "collector"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Collect fetches entries for query and runs each through the pipeline.
// Fetch failures are returned as errors; per-item rejections are reported in
// the Report.
func (r *Runner) Collect(ctx context.Context, src Source, query string, cursor, limit int) (Report, error) {
	report := Report{Source: src.Name(), Query: query}
	msgs := src.Messages()

	entries, err := src.Fetch(ctx, query, cursor, limit)
	if errors.Is(err, ErrNoResults) {
		r.recorder.RecordCollection(src.Name(), nil)
		report.Summary = msgs.Empty
		return report, nil
	}
	if err != nil {
		r.recorder.RecordCollection(src.Name(), err)
		return report, fmt.Errorf("%s: %w", src.Name(), err)
	}
	r.recorder.RecordCollection(src.Name(), nil)

	for _, e := range entries {
		res := r.pipeline.Process(ctx, e.Item, r.thresholds.For(e.Item.SourceType))
		report.Results = append(report.Results, res)
		report.Lines = append(report.Lines, fmt.Sprintf("%s - %s", e.Label, res.Status))
	}

	if len(report.Lines) == 0 {
		report.Summary = msgs.NoneProcessed
	} else {
		report.Summary = msgs.Header + "\n\n" + strings.Join(report.Lines, "\n")
	}

	r.logger.Info("collection finished", "source", src.Name(), "query", query,
		"cursor", cursor, "entries", len(entries), "accepted", report.Accepted())
	return report, nil
}

// Task adapts a source to the scheduler's task signature.
func (r *Runner) Task(src Source) func(ctx context.Context, topic string, cursor, limit int) (string, error) {
	return func(ctx context.Context, topic string, cursor, limit int) (string, error) {
		report, err := r.Collect(ctx, src, topic, cursor, limit)
		if err != nil {
			return "", err
		}
		return report.Summary, nil
	}
}
