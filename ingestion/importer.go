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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/normalize"
	"github.com/poiesic/qamatch/storage"
)

const defaultBatchSize = 32

// ImportOptions controls a bulk import.
type ImportOptions struct {
	// Update relinks questions that already exist to the row's answer.
	// Other questions sharing their previous answer are left alone.
	Update bool
	// DryRun reports what would change without writing.
	DryRun bool
	// SemanticDedupe skips new questions whose nearest indexed question
	// has at least this cosine similarity. Zero disables the check.
	SemanticDedupe float64
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	Rows               int
	Inserted           int
	Updated            int
	Skipped            int // empty question or answer
	Duplicates         int // normalized question already stored or repeated in the input
	SemanticDuplicates int
}

// Importer loads question/answer pairs in bulk. Embeddings are computed
// concurrently in batches on a worker pool; batches are then written in
// input order through the corpus writer.
type Importer struct {
	writer    *Writer
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer) error

// WithPoolSize sets the number of concurrent embedding batches.
func WithPoolSize(size int) ImporterOption {
	return func(imp *Importer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if imp.pool != nil {
			imp.pool.Release()
		}
		imp.pool = pool
		return nil
	}
}

// WithBatchSize sets how many pairs are embedded per embedder call.
func WithBatchSize(size int) ImporterOption {
	return func(imp *Importer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		imp.batchSize = size
		return nil
	}
}

// WithLogger sets the importer's logger.
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(imp *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		imp.logger = logger
		return nil
	}
}

// NewImporter creates an importer writing through writer.
func NewImporter(writer *Writer, opts ...ImporterOption) (*Importer, error) {
	if writer == nil {
		return nil, ErrWriterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	imp := &Importer{
		writer:    writer,
		pool:      pool,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(imp); err != nil {
			imp.Release()
			return nil, err
		}
	}
	imp.logger = imp.logger.With("component", "importer")
	return imp, nil
}

// Release stops the worker pool.
func (imp *Importer) Release() {
	if imp.pool != nil {
		imp.pool.Release()
	}
}

// ImportFile imports a .csv or .xlsx file.
func (imp *Importer) ImportFile(ctx context.Context, path string, opts ImportOptions) (*ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []RawPair
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = ReadCSV(f)
	case ".xlsx":
		rows, err = ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	imp.logger.Info("importing", "path", path, "rows", len(rows))
	return imp.Import(ctx, rows, opts)
}

type pendingUpdate struct {
	questionID core.ID
	answer     string
}

// Import stores rows, skipping empty rows and questions whose normalized
// text is already stored.
func (imp *Importer) Import(ctx context.Context, rows []RawPair, opts ImportOptions) (*ImportReport, error) {
	report := &ImportReport{Rows: len(rows)}
	corpus := imp.writer.corpus

	var fresh []RawPair
	var updates []pendingUpdate
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		row.Question = strings.TrimSpace(row.Question)
		row.Answer = strings.TrimSpace(row.Answer)
		if row.Question == "" || row.Answer == "" {
			report.Skipped++
			continue
		}
		normalized := normalize.Fold(row.Question)
		if normalized == "" {
			report.Skipped++
			continue
		}
		if _, dup := seen[normalized]; dup {
			report.Duplicates++
			continue
		}
		seen[normalized] = struct{}{}

		existing, err := corpus.FindQuestionByText(ctx, normalized)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fresh = append(fresh, row)
		case err != nil:
			return report, err
		case opts.Update:
			updates = append(updates, pendingUpdate{questionID: existing.Id, answer: row.Answer})
		default:
			report.Duplicates++
		}
	}

	prepared, err := imp.prepare(ctx, fresh)
	if err != nil {
		return report, err
	}

	for _, batch := range prepared {
		batch = imp.dropSemanticDuplicates(batch, opts.SemanticDedupe, report)
		if len(batch) == 0 {
			continue
		}
		if opts.DryRun {
			report.Inserted += len(batch)
			continue
		}
		added, err := imp.writer.AddPairs(ctx, batch...)
		if err != nil {
			return report, err
		}
		report.Inserted += len(added)
	}

	for _, u := range updates {
		if !opts.DryRun {
			if _, err := imp.writer.SetAnswer(ctx, u.questionID, u.answer); err != nil {
				return report, err
			}
		}
		report.Updated++
	}

	imp.logger.Info("import finished",
		"rows", report.Rows,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
		"semantic_duplicates", report.SemanticDuplicates,
		"dry_run", opts.DryRun)
	return report, nil
}

// prepare embeds rows in batches on the pool, returning batches in input order.
func (imp *Importer) prepare(ctx context.Context, rows []RawPair) ([][]storage.Pair, error) {
	var batches [][]RawPair
	for start := 0; start < len(rows); start += imp.batchSize {
		end := min(start+imp.batchSize, len(rows))
		batches = append(batches, rows[start:end])
	}

	results := make([][]storage.Pair, len(batches))
	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		err := imp.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = imp.writer.Prepare(ctx, batch...)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		imp.logger.Error("error preparing import batches", "err", err)
		return nil, err
	}
	return results, nil
}

func (imp *Importer) dropSemanticDuplicates(batch []storage.Pair, threshold float64, report *ImportReport) []storage.Pair {
	if threshold <= 0 {
		return batch
	}
	vectors := imp.writer.Index().Current().Vectors
	kept := batch[:0]
	for _, p := range batch {
		hits, err := vectors.Query(p.Question.Vector, 1)
		if err == nil && len(hits) > 0 && hits[0].Similarity >= threshold {
			imp.logger.Debug("skipping near duplicate", "question", p.Question.Text, "similar_to", hits[0].Id, "similarity", hits[0].Similarity)
			report.SemanticDuplicates++
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
