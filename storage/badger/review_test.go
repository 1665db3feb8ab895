package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/qamatch/core"
	"github.com/poiesic/qamatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addItem(t *testing.T, repos *Repositories, question, answer, source string) *core.PendingReview {
	t.Helper()
	items, err := repos.Review.AddItems(context.Background(), &core.PendingReview{
		Question: question,
		Answer:   answer,
		Source:   source,
		Approved: true,
		Metadata: map[string]string{core.MetaURL: "https://example.org/" + source},
	})
	require.NoError(t, err)
	return items[0]
}

func TestReview_AddAndList(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	first := addItem(t, repos, "Q1", "A1", "web")
	addItem(t, repos, "Q2", "A2", "wiki")
	assert.False(t, first.Approved, "new items are never pre-approved")

	all, err := repos.Review.ListItems(ctx, storage.ReviewFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repos.Review.SetApproved(ctx, first.Id, true))

	approved := true
	got, err := repos.Review.ListItems(ctx, storage.ReviewFilter{Approved: &approved})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.Id, got[0].Id)

	got, err = repos.Review.ListItems(ctx, storage.ReviewFilter{Source: "wiki"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Q2", got[0].Question)
	assert.Equal(t, "https://example.org/wiki", got[0].Metadata[core.MetaURL])
}

func TestReview_Delete(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	item := addItem(t, repos, "Q1", "A1", "web")
	require.NoError(t, repos.Review.DeleteItems(ctx, item.Id))

	_, err := repos.Review.GetItem(ctx, item.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, repos.Review.DeleteItems(ctx, item.Id), storage.ErrNotFound)
	assert.ErrorIs(t, repos.Review.SetApproved(ctx, item.Id, true), storage.ErrNotFound)
}

func promotion(item *core.PendingReview) storage.Promotion {
	return storage.Promotion{
		ItemId:   item.Id,
		Question: &core.Question{Text: item.Question, Normalized: item.Question},
		Answer:   &core.Answer{Text: item.Answer, Normalized: item.Answer},
		Feedback: &core.SearchFeedback{Source: item.Source, Approved: true},
	}
}

func TestReview_Promote(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	item := addItem(t, repos, "maior osso", "femur", "web")
	p := promotion(item)
	require.NoError(t, repos.Review.Promote(ctx, p))

	_, err := repos.Review.GetItem(ctx, item.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	q, err := repos.Corpus.FindQuestionByText(ctx, "maior osso")
	require.NoError(t, err)
	assert.Equal(t, p.Question.Id, q.Id)

	fbs, err := repos.Feedback.GetFeedbackByQuestion(ctx, q.Id)
	require.NoError(t, err)
	require.Len(t, fbs, 1)
	assert.Equal(t, q.AnswerId, fbs[0].AnswerId)
	assert.True(t, fbs[0].Approved)
}

func TestReview_PromoteIsAtomic(t *testing.T) {
	for _, stage := range []string{"pair", "feedback", "commit"} {
		t.Run(stage, func(t *testing.T) {
			repos := newTestRepos(t)
			ctx := context.Background()
			item := addItem(t, repos, "maior osso", "femur", "web")

			boom := errors.New("store failure")
			repos.Review.failPoint = func(s string) error {
				if s == stage {
					return boom
				}
				return nil
			}

			err := repos.Review.Promote(ctx, promotion(item))
			assert.ErrorIs(t, err, boom)

			// queue item remains
			_, err = repos.Review.GetItem(ctx, item.Id)
			require.NoError(t, err)

			// no question, no dangling answer, no feedback
			count, err := repos.Corpus.CountQuestions(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
			_, err = repos.Corpus.FindAnswerByText(ctx, "femur")
			assert.ErrorIs(t, err, storage.ErrNotFound)
			answers, err := repos.Corpus.GetAnswerPage(ctx, 0, 10)
			require.NoError(t, err)
			assert.Empty(t, answers)
			fbs, err := repos.Feedback.ListFeedback(ctx)
			require.NoError(t, err)
			assert.Empty(t, fbs)

			// a retry with fresh records succeeds exactly once
			repos.Review.failPoint = nil
			require.NoError(t, repos.Review.Promote(ctx, promotion(item)))
			count, err = repos.Corpus.CountQuestions(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestReview_PromoteDuplicateQuestion(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Corpus.AddPairs(ctx, pair("maior osso", "maior osso", "femur", "femur"))
	require.NoError(t, err)

	item := addItem(t, repos, "maior osso", "tibia", "web")
	err = repos.Review.Promote(ctx, promotion(item))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = repos.Review.GetItem(ctx, item.Id)
	require.NoError(t, err)
	_, err = repos.Corpus.FindAnswerByText(ctx, "tibia")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
