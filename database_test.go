package qamatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/qamatch/ai"
	"github.com/poiesic/qamatch/ai/local"
	"github.com/poiesic/qamatch/ai/mock"
	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/ingestion"
	"github.com/poiesic/qamatch/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *ai.Config {
	return ai.NewConfig(ai.WithBackend(ai.BackendLocal), ai.WithDimension(64))
}

func seed(t *testing.T, db *Database) {
	t.Helper()
	ctx := context.Background()
	pairs, err := db.Writer().Prepare(ctx,
		ingestion.RawPair{Question: "Qual é o maior osso do corpo humano?", Answer: "O maior osso do corpo humano é o fêmur."},
		ingestion.RawPair{Question: "Qual a capital do Brasil?", Answer: "Brasília."},
	)
	require.NoError(t, err)
	_, err = db.Writer().AddPairs(ctx, pairs...)
	require.NoError(t, err)
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithAIConfig(localConfig()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.CorpusRepository())
		assert.NotNil(t, db.ReviewRepository())
		assert.NotNil(t, db.MemoryRepository())
		assert.NotNil(t, db.FeedbackRepository())
		assert.NotNil(t, db.ManifestRepository())
		assert.NotNil(t, db.Writer())
		assert.Equal(t, local.ModelName, db.Provider().EmbeddingModel())
		assert.Zero(t, db.Index().Current().Len())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithAIConfig(localConfig()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithAIConfig(ai.NewConfig(ai.WithBackend("carrier-pigeon"))))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	provider := mock.NewMockProviderWithEmbedder(mock.NewMockEmbedder())
	db, err := NewDatabase(t.TempDir(), WithProvider(provider))
	require.NoError(t, err)

	assert.NoError(t, db.Close())
	assert.True(t, provider.Closed())
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase("", WithInMemory(), WithAIConfig(localConfig()))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	t.Run("query service", func(t *testing.T) {
		svc, err := db.NewQueryService(ctx, search.WithTopK(5))
		require.NoError(t, err)
		defer svc.Close()
		assert.Equal(t, 5, svc.Options().TopK)
	})

	t.Run("review queue", func(t *testing.T) {
		q, err := db.NewReviewQueue()
		require.NoError(t, err)
		assert.NotNil(t, q)
	})

	t.Run("memory store", func(t *testing.T) {
		s, err := db.NewMemoryStore()
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("importer", func(t *testing.T) {
		imp, err := db.NewImporter()
		require.NoError(t, err)
		imp.Release()
	})

	t.Run("reembedder", func(t *testing.T) {
		r, err := db.NewReembedder(nil, nil)
		require.NoError(t, err)
		assert.NotNil(t, r)
	})
}

func TestDatabase_ReopenLoadsIndex(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := NewDatabase(dir, WithAIConfig(localConfig()))
	require.NoError(t, err)
	seed(t, db)
	require.NoError(t, db.Close())

	db, err = NewDatabase(dir, WithAIConfig(localConfig()))
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 2, db.Index().Current().Len())

	svc, err := db.NewQueryService(ctx)
	require.NoError(t, err)
	defer svc.Close()

	resp, err := svc.Ask(ctx, search.Request{QueryText: "qual o maior osso do corpo humano"})
	require.NoError(t, err)
	assert.Equal(t, search.StatusMatch, resp.Status)
	assert.Equal(t, "O maior osso do corpo humano é o fêmur.", resp.AnswerText)

	manifest, err := db.ManifestRepository().LoadManifest(ctx)
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, local.ModelName, manifest.EmbeddingModel)
	assert.Equal(t, 64, manifest.Dimension)
}

func TestDatabase_ModelChange(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := NewDatabase(dir, WithAIConfig(localConfig()))
	require.NoError(t, err)
	seed(t, db)
	require.NoError(t, db.VerifyManifest(ctx))
	require.NoError(t, db.Close())

	t.Run("dimension change", func(t *testing.T) {
		db, err := NewDatabase(dir, WithAIConfig(ai.NewConfig(ai.WithBackend(ai.BackendLocal), ai.WithDimension(32))))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.NewQueryService(ctx)
		var mismatch *core.DimensionMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 64, mismatch.Expected)
		assert.Equal(t, 32, mismatch.Got)
	})

	t.Run("model change then reembed", func(t *testing.T) {
		db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.NewQueryService(ctx)
		assert.ErrorIs(t, err, ErrModelChanged)

		r, err := db.NewReembedder(nil, nil)
		require.NoError(t, err)
		stats, err := r.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Questions)
		assert.Equal(t, mock.DefaultDimension, db.Index().Current().Vectors.Dim())

		svc, err := db.NewQueryService(ctx)
		require.NoError(t, err)
		svc.Close()
	})
}
