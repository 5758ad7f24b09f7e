package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/linkgraph/internal/crawler"
	"github.com/nao1215/linkgraph/internal/report"
)

// ExportStep writes the result with a report.Writer.
type ExportStep struct {
	name   string
	writer report.Writer
	logger *slog.Logger

	// onFailure also writes results of aborted runs.
	onFailure bool
}

// ExportOption configures an ExportStep.
type ExportOption func(*ExportStep)

// WithExportOnFailure writes the result even when the run was aborted.
// By default an aborted run is not exported.
func WithExportOnFailure(onFailure bool) ExportOption {
	return func(s *ExportStep) {
		s.onFailure = onFailure
	}
}

// WithExportLogger sets the logger.
func WithExportLogger(logger *slog.Logger) ExportOption {
	return func(s *ExportStep) {
		s.logger = logger
	}
}

// NewExportStep creates an export step called name.
func NewExportStep(name string, w report.Writer, opts ...ExportOption) *ExportStep {
	s := &ExportStep{name: name, writer: w}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Name implements Step.
func (s *ExportStep) Name() string { return s.name }

// Do implements Step.
func (s *ExportStep) Do(_ context.Context, result *crawler.Result) error {
	if result.Err != nil && !s.onFailure {
		s.logger.Info("export skipped for aborted run", "step", s.name)
		return nil
	}
	n, err := s.writer.Write(result)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	s.logger.Debug("export written", "step", s.name, "bytes", n)
	return nil
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, result *crawler.Result) (int64, error)
}

// ArchiveStep stores every run, aborted ones included.
type ArchiveStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewArchiveStep creates an archive step. A nil logger means slog.Default.
func NewArchiveStep(store RunStore, logger *slog.Logger) *ArchiveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveStep{store: store, logger: logger}
}

// Name implements Step.
func (s *ArchiveStep) Name() string { return "archive" }

// Do implements Step. The archive write is not cancelled with the run so
// that interrupted crawls are still recorded.
func (s *ArchiveStep) Do(ctx context.Context, result *crawler.Result) error {
	id, err := s.store.SaveRun(context.WithoutCancel(ctx), result)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	s.logger.Info("run archived", "run_id", id, "records", len(result.Records))
	return nil
}
