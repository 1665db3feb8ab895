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

package qamatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/ai/local"
	"github.com/poiesic/qamatch/ai/openai"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/index"
	"github.com/poiesic/qamatch/ingestion"
	"github.com/poiesic/qamatch/lexical"
	"github.com/poiesic/qamatch/memory"
	"github.com/poiesic/qamatch/reembed"
	"github.com/poiesic/qamatch/review"
	"github.com/poiesic/qamatch/search"
	"github.com/poiesic/qamatch/storage"
	"github.com/poiesic/qamatch/storage/badger"
)

// ErrModelChanged is returned when the configured embedding model differs
// from the one recorded for the stored vectors.
var ErrModelChanged = errors.New("embedding model changed since the corpus was embedded")

// Database wires the store, the embedding provider, the in-memory index
// and the single corpus writer.
type Database struct {
	backend  *badger.Backend
	repos    *badger.Repositories
	provider ai.AIProvider
	index    *index.Manager
	writer   *ingestion.Writer
	aiConfig *ai.Config
	loadErr  error
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	stemming bool
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig selects and configures the embedding backend.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI config.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithStemming reduces plural keyword forms before lexical matching.
func WithStemming(enabled bool) DatabaseOption {
	return func(o *databaseOptions) {
		o.stemming = enabled
	}
}

// WithInMemory keeps everything in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the store at filePath and loads the index from it.
// A corpus whose vectors cannot be indexed (for example after an
// interrupted reembed) still opens so that it can be reembedded, but
// NewQueryService refuses to serve it.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if options.aiConfig == nil {
		options.aiConfig = ai.DefaultConfig()
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	repos, err := badger.OpenRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = newProvider(options.aiConfig)
		if err != nil {
			repos.Close()
			backend.Close()
			return nil, err
		}
	}

	indexOpts := []index.Option{index.WithLogger(options.logger)}
	if options.stemming {
		indexOpts = append(indexOpts, index.WithStemmer(lexical.PluralStemmer))
	}
	idx := index.NewManager(indexOpts...)

	writer, err := ingestion.NewWriter(repos.Corpus, provider.Embedder(), idx,
		ingestion.WithWriterLogger(options.logger))
	if err != nil {
		provider.Close()
		repos.Close()
		backend.Close()
		return nil, err
	}

	db := &Database{
		backend:  backend,
		repos:    repos,
		provider: provider,
		index:    idx,
		writer:   writer,
		aiConfig: options.aiConfig,
		logger:   options.logger.With("component", "database"),
	}
	if err := db.RebuildIndex(context.Background()); err != nil {
		db.logger.Warn("index not loaded, reembed the corpus", "err", err)
	}
	return db, nil
}

func newProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case ai.BackendLocal:
		return local.NewProvider(config)
	default:
		return openai.NewProvider(config)
	}
}

// Close releases the provider, the repositories and the backend.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing repositories", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Index returns the published index.
func (db *Database) Index() *index.Manager {
	return db.index
}

// Writer returns the single corpus writer.
func (db *Database) Writer() *ingestion.Writer {
	return db.writer
}

// Provider returns the embedding provider.
func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

func (db *Database) CorpusRepository() storage.CorpusRepository {
	return db.repos.Corpus
}

func (db *Database) ReviewRepository() storage.ReviewRepository {
	return db.repos.Review
}

func (db *Database) MemoryRepository() storage.MemoryRepository {
	return db.repos.Memory
}

func (db *Database) FeedbackRepository() storage.FeedbackRepository {
	return db.repos.Feedback
}

func (db *Database) ManifestRepository() storage.ManifestRepository {
	return db.repos.Manifest
}

// RebuildIndex reloads the index from the store and swaps it in.
func (db *Database) RebuildIndex(ctx context.Context) error {
	err := db.writer.Rebuild(ctx)
	db.loadErr = err
	return err
}

// VerifyManifest compares the stored manifest with the provider. A corpus
// without a manifest adopts the current model once it holds vectors.
// A model change returns ErrModelChanged; a dimension change returns a
// *core.DimensionMismatchError.
func (db *Database) VerifyManifest(ctx context.Context) error {
	manifest, err := db.repos.Manifest.LoadManifest(ctx)
	if err != nil {
		return err
	}
	model := db.provider.EmbeddingModel()
	dim := db.index.Current().Vectors.Dim()

	if manifest == nil {
		if dim == 0 {
			return nil
		}
		db.logger.Info("recording embedding manifest", "model", model, "dimension", dim)
		return db.repos.Manifest.SaveManifest(ctx, &core.Manifest{EmbeddingModel: model, Dimension: dim})
	}
	if manifest.EmbeddingModel != model {
		return fmt.Errorf("%w: stored %q, configured %q", ErrModelChanged, manifest.EmbeddingModel, model)
	}
	want := db.aiConfig.Dimension
	if want != 0 && manifest.Dimension != 0 && want != manifest.Dimension {
		return &core.DimensionMismatchError{Expected: manifest.Dimension, Got: want}
	}
	return nil
}

// NewQueryService returns a query service over the published index. It
// retries a failed index load and fails if that still does not succeed or
// the embedding model changed.
func (db *Database) NewQueryService(ctx context.Context, opts ...search.Option) (*search.Service, error) {
	if db.loadErr != nil {
		if err := db.RebuildIndex(ctx); err != nil {
			return nil, fmt.Errorf("index not loaded: %w", err)
		}
	}
	if err := db.VerifyManifest(ctx); err != nil {
		return nil, err
	}
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewService(db.index, db.repos.Corpus, db.repos.Feedback, db.provider.Embedder(), opts...)
}

func (db *Database) NewReviewQueue(opts ...review.Option) (*review.Queue, error) {
	opts = append([]review.Option{review.WithLogger(db.logger)}, opts...)
	return review.NewQueue(db.repos.Review, db.writer, opts...)
}

func (db *Database) NewMemoryStore(opts ...memory.Option) (*memory.Store, error) {
	opts = append([]memory.Option{memory.WithLogger(db.logger)}, opts...)
	return memory.NewStore(db.repos.Memory, opts...)
}

// NewImporter returns a bulk importer. Callers must Release it.
func (db *Database) NewImporter(opts ...ingestion.ImporterOption) (*ingestion.Importer, error) {
	opts = append([]ingestion.ImporterOption{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewImporter(db.writer, opts...)
}

// NewReembedder returns a reembedder that rewrites every vector with the
// current provider and records its model in the manifest.
func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	r, err := reembed.NewReembedder(db.repos.Corpus, db.writer, db.provider.Embedder(), config, progress,
		reembed.WithManifest(db.repos.Manifest, db.provider.EmbeddingModel()),
		reembed.WithLogger(db.logger))
	if err != nil {
		return nil, err
	}
	return r, nil
}
