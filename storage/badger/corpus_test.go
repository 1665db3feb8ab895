package badger

import (
	"context"
	"testing"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repos.Close()
		backend.Close()
	})
	return repos
}

func pair(question, normalizedQ, answer, normalizedA string) storage.Pair {
	return storage.Pair{
		Question: &core.Question{Text: question, Normalized: normalizedQ, Keywords: []string{"osso"}},
		Answer:   &core.Answer{Text: answer, Normalized: normalizedA},
	}
}

func TestCorpus_AddPairs(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Corpus.AddPairs(ctx,
		pair("Qual é o maior osso?", "qual e o maior osso", "O fêmur.", "o femur"),
		pair("Qual o maior osso humano?", "qual o maior osso humano", "O fêmur.", "o femur"),
	)
	require.NoError(t, err)
	require.Len(t, added, 2)

	q1, q2 := added[0].Question, added[1].Question
	assert.NotZero(t, q1.Id)
	assert.NotEqual(t, q1.Id, q2.Id)
	assert.Equal(t, q1.AnswerId, q2.AnswerId, "same normalized answer is shared")
	assert.False(t, q1.InsertedAt.IsZero())

	got, err := repos.Corpus.GetQuestion(ctx, q1.Id)
	require.NoError(t, err)
	assert.Equal(t, "Qual é o maior osso?", got.Text)
	assert.Equal(t, []string{"osso"}, got.Keywords)

	ids, err := repos.Corpus.GetQuestionsByAnswer(ctx, q1.AnswerId)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.ID{q1.Id, q2.Id}, ids)

	count, err := repos.Corpus.CountQuestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCorpus_DuplicateQuestionRejected(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Corpus.AddPairs(ctx, pair("A?", "a", "B", "b"))
	require.NoError(t, err)

	_, err = repos.Corpus.AddPairs(ctx,
		pair("C?", "c", "D", "d"),
		pair("A!", "a", "E", "e"),
	)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// whole batch rolled back
	_, err = repos.Corpus.FindQuestionByText(ctx, "c")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repos.Corpus.FindAnswerByText(ctx, "d")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCorpus_LinkExistingAnswer(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Corpus.AddPairs(ctx, pair("A?", "a", "B", "b"))
	require.NoError(t, err)
	answerID := added[0].Answer.Id

	linked, err := repos.Corpus.AddPairs(ctx, storage.Pair{
		Question: &core.Question{Text: "A2?", Normalized: "a2"},
		Answer:   &core.Answer{Id: answerID},
	})
	require.NoError(t, err)
	assert.Equal(t, answerID, linked[0].Question.AnswerId)
	assert.Equal(t, "B", linked[0].Answer.Text)

	_, err = repos.Corpus.AddPairs(ctx, storage.Pair{
		Question: &core.Question{Text: "A3?", Normalized: "a3"},
		Answer:   &core.Answer{Id: 9999},
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCorpus_UpdateQuestions(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Corpus.AddPairs(ctx, pair("A?", "a", "B", "b"), pair("C?", "c", "D", "d"))
	require.NoError(t, err)
	q := added[0].Question

	q.Vector = []float32{1, 0}
	_, err = repos.Corpus.UpdateQuestions(ctx, q)
	require.NoError(t, err)

	got, err := repos.Corpus.GetQuestion(ctx, q.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, got.Vector)

	q.Normalized = "c"
	_, err = repos.Corpus.UpdateQuestions(ctx, q)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = repos.Corpus.UpdateQuestions(ctx, &core.Question{Id: 999, Normalized: "z"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCorpus_DeleteRemovesOrphanedAnswer(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Corpus.AddPairs(ctx, pair("A?", "a", "B", "b"), pair("A2?", "a2", "B", "b"))
	require.NoError(t, err)
	answerID := added[0].Answer.Id

	require.NoError(t, repos.Corpus.DeleteQuestions(ctx, added[0].Question.Id))
	_, err = repos.Corpus.GetAnswer(ctx, answerID)
	require.NoError(t, err, "answer still referenced")

	require.NoError(t, repos.Corpus.DeleteQuestions(ctx, added[1].Question.Id))
	_, err = repos.Corpus.GetAnswer(ctx, answerID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repos.Corpus.FindAnswerByText(ctx, "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, repos.Corpus.DeleteQuestions(ctx, added[0].Question.Id), storage.ErrNotFound)
}

func TestCorpus_Paging(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	var pairs []storage.Pair
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		pairs = append(pairs, pair(s, s, "x"+s, "x"+s))
	}
	_, err := repos.Corpus.AddPairs(ctx, pairs...)
	require.NoError(t, err)

	page, err := repos.Corpus.GetQuestionPage(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := repos.Corpus.GetQuestionPage(ctx, page[1].Id, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	assert.Greater(t, rest[0].Id, page[1].Id)

	answers, err := repos.Corpus.GetAnswerPage(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, answers, 5)

	var seen []string
	err = repos.Corpus.ForEachQuestion(ctx, func(q *core.Question) error {
		seen = append(seen, q.Normalized)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, seen)

	_, err = repos.Corpus.GetQuestionPage(ctx, 0, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidArgument)
}

func TestCorpus_RelinkQuestion(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Corpus.AddPairs(ctx,
		pair("Qual a capital do Brasil?", "qual a capital do brasil", "Brasília.", "brasilia"),
		pair("Onde fica o governo federal?", "onde fica o governo federal", "Brasília.", "brasilia"),
		pair("Quem descobriu o Brasil?", "quem descobriu o brasil", "Cabral.", "cabral"),
	)
	require.NoError(t, err)
	capital, government, discovered := added[0].Question, added[1].Question, added[2].Question
	shared := capital.AnswerId

	t.Run("new text leaves siblings on the shared answer", func(t *testing.T) {
		q, a, err := repos.Corpus.RelinkQuestion(ctx, capital.Id, &core.Answer{Text: "Brasília, DF.", Normalized: "brasilia df"})
		require.NoError(t, err)
		assert.NotEqual(t, shared, a.Id)
		assert.Equal(t, a.Id, q.AnswerId)

		sibling, err := repos.Corpus.GetQuestion(ctx, government.Id)
		require.NoError(t, err)
		assert.Equal(t, shared, sibling.AnswerId)
		kept, err := repos.Corpus.FindAnswerByText(ctx, "brasilia")
		require.NoError(t, err)
		assert.Equal(t, shared, kept.Id)

		ids, err := repos.Corpus.GetQuestionsByAnswer(ctx, shared)
		require.NoError(t, err)
		assert.Equal(t, []core.ID{government.Id}, ids)
	})

	t.Run("stored text is reused and the orphan removed", func(t *testing.T) {
		q, a, err := repos.Corpus.RelinkQuestion(ctx, government.Id, &core.Answer{Text: "cabral", Normalized: "cabral"})
		require.NoError(t, err)
		assert.Equal(t, discovered.AnswerId, a.Id)
		assert.Equal(t, "Cabral.", a.Text)
		assert.Equal(t, discovered.AnswerId, q.AnswerId)

		_, err = repos.Corpus.GetAnswer(ctx, shared)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = repos.Corpus.FindAnswerByText(ctx, "brasilia")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, repos.Corpus.DeleteQuestions(ctx, government.Id))
		found, err := repos.Corpus.FindAnswerByText(ctx, "cabral")
		require.NoError(t, err)
		assert.Equal(t, discovered.AnswerId, found.Id)
	})

	t.Run("missing question", func(t *testing.T) {
		_, _, err := repos.Corpus.RelinkQuestion(ctx, 999, &core.Answer{Text: "x", Normalized: "x"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = repos.Corpus.FindAnswerByText(ctx, "x")
		assert.ErrorIs(t, err, storage.ErrNotFound, "nothing written")
	})

	t.Run("empty answer", func(t *testing.T) {
		_, _, err := repos.Corpus.RelinkQuestion(ctx, capital.Id, &core.Answer{})
		assert.ErrorIs(t, err, storage.ErrInvalidArgument)
	})
}

func TestCorpus_UpdateAnswersRejectsTextCollision(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Corpus.AddPairs(ctx,
		pair("Quem descobriu o Brasil?", "quem descobriu o brasil", "Cabral.", "cabral"),
		pair("Quem chegou em 1500?", "quem chegou em 1500", "Os portugueses.", "os portugueses"),
	)
	require.NoError(t, err)
	cabral, portugueses := added[0].Answer, added[1].Answer

	_, err = repos.Corpus.UpdateAnswers(ctx, &core.Answer{Id: portugueses.Id, Text: "Cabral!", Normalized: "cabral"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	found, err := repos.Corpus.FindAnswerByText(ctx, "cabral")
	require.NoError(t, err)
	assert.Equal(t, cabral.Id, found.Id)
	stored, err := repos.Corpus.GetAnswer(ctx, portugueses.Id)
	require.NoError(t, err)
	assert.Equal(t, "Os portugueses.", stored.Text)

	// same normalized text on the same id is an ordinary edit
	_, err = repos.Corpus.UpdateAnswers(ctx, &core.Answer{Id: cabral.Id, Text: "CABRAL", Normalized: "cabral"})
	require.NoError(t, err)
}
