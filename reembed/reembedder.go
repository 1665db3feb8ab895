// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/ingestion"
	"github.com/poiesic/qamatch/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// SkipAnswers leaves cached answer vectors untouched
	SkipAnswers bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Stats summarizes a completed run.
type Stats struct {
	Questions int
	Answers   int
	Dimension int
	Elapsed   time.Duration
}

// Reembedder orchestrates the reembedding of every question and answer in a corpus.
type Reembedder struct {
	repo      storage.CorpusRepository
	writer    *ingestion.Writer
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	manifest  storage.ManifestRepository
	model     string
	logger    *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithManifest records model and the new dimension in repo after a
// successful run.
func WithManifest(repo storage.ManifestRepository, model string) Option {
	return func(r *Reembedder) {
		r.manifest = repo
		r.model = model
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReembedder creates a new reembedder. Stored records are rewritten
// under writer's lock and writer's index is rebuilt afterwards.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	repo storage.CorpusRepository,
	writer *ingestion.Writer,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
	opts ...Option,
) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrCorpusRepositoryRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	r := &Reembedder{
		repo:      repo,
		writer:    writer,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "reembedder")
	return r, nil
}

// Run re-embeds every stored question and, unless configured otherwise,
// every answer. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) (*Stats, error) {
	total, err := r.repo.CountQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No questions found in corpus (0 records)\n")
		return &Stats{}, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d questions (batch size: %d)\n",
		total, r.config.BatchSize)

	stats := &Stats{}
	start := time.Now()
	err = r.writer.Exclusive(ctx, func(ctx context.Context) error {
		if err := r.reembedQuestions(ctx, total, stats); err != nil {
			return err
		}
		if r.config.SkipAnswers {
			return nil
		}
		return r.reembedAnswers(ctx, stats)
	})
	if err != nil {
		r.logger.Error("reembedding failed, previous index kept", "questions", stats.Questions, "err", err)
		return stats, err
	}
	stats.Elapsed = time.Since(start)

	if r.manifest != nil {
		manifest := &core.Manifest{EmbeddingModel: r.model, Dimension: stats.Dimension}
		if err := r.manifest.SaveManifest(ctx, manifest); err != nil {
			return stats, fmt.Errorf("failed to save manifest: %w", err)
		}
	}

	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d questions and %d answers in %v (dimension %d)\n",
		stats.Questions, stats.Answers, stats.Elapsed.Round(time.Millisecond), stats.Dimension)
	r.logger.Info("reembedding complete",
		"questions", stats.Questions,
		"answers", stats.Answers,
		"dimension", stats.Dimension,
		"elapsed", stats.Elapsed)
	return stats, nil
}

func (r *Reembedder) reembedQuestions(ctx context.Context, total int, stats *Stats) error {
	tracker := NewProgressTracker(r.progress, "questions", total, r.config.ReportInterval)
	tracker.Start()

	err := NewQuestionIterator(r.repo, r.config.BatchSize).ForEach(ctx, func(questions []*core.Question) error {
		if err := r.processor.ProcessQuestions(ctx, questions); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		if stats.Dimension == 0 {
			stats.Dimension = len(questions[0].Vector)
		}
		stats.Questions += len(questions)
		tracker.Update(stats.Questions)
		return nil
	})
	if err != nil {
		return err
	}
	tracker.Finish()
	return nil
}

func (r *Reembedder) reembedAnswers(ctx context.Context, stats *Stats) error {
	return NewAnswerIterator(r.repo, r.config.BatchSize).ForEach(ctx, func(answers []*core.Answer) error {
		if err := r.processor.ProcessAnswers(ctx, answers); err != nil {
			return fmt.Errorf("failed to process answer batch: %w", err)
		}
		stats.Answers += len(answers)
		return nil
	})
}
