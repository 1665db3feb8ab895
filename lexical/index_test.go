package lexical

import (
	"testing"

	"github.com/poiesic/qamatch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boneQuestion = "qual e o maior osso do corpo humano"

func TestKeywords(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		stemmer Stemmer
		want    []string
	}{
		{name: "stop words and short tokens dropped", text: boneQuestion, want: []string{"corpo", "humano", "maior", "osso", "qual"}},
		{name: "query without accent matches", text: "qual o maior osso do corpo humano", want: []string{"corpo", "humano", "maior", "osso", "qual"}},
		{name: "duplicates collapse", text: "bolo bolo de chocolate", want: []string{"bolo", "chocolate"}},
		{name: "plural stemming", text: "ossos do corpo", stemmer: PluralStemmer, want: []string{"corpo", "osso"}},
		{name: "only stop words", text: "o que e isso", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Keywords(tt.text, tt.stemmer))
		})
	}
}

func TestKeywords_Capped(t *testing.T) {
	text := ""
	for i := 0; i < 30; i++ {
		text += string(rune('a'+i%26)) + string(rune('a'+i/26)) + "x "
	}
	assert.Len(t, Keywords(text, nil), MaxKeywords)
}

func TestPluralStemmer(t *testing.T) {
	tests := map[string]string{
		"ossos":    "osso",
		"flores":   "flor",
		"luzes":    "luz",
		"coracoes": "coracao",
		"homens":   "homem",
		"lapis":    "lapis",
		"bones":    "bone",
		"cities":   "city",
		"sol":      "sol",
	}
	for in, want := range tests {
		assert.Equal(t, want, PluralStemmer.Stem(in), in)
	}
}

func TestIndex_SelfQueryScoresOne(t *testing.T) {
	ix := NewIndex()
	questions := map[core.ID]string{
		1: boneQuestion,
		2: "qual e a capital do brasil",
		3: "quem descobriu o brasil",
		4: "qual e o menor osso do corpo",
	}
	for id, text := range questions {
		ix.Put(id, text)
	}

	for id, text := range questions {
		hits := ix.Query(ix.Keywords(text), 10)
		require.NotEmpty(t, hits)
		assert.Equal(t, id, hits[0].Id, text)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-12, text)
	}
}

func TestIndex_QueryOrdering(t *testing.T) {
	ix := NewIndex()
	ix.Put(5, "maior osso")
	ix.Put(3, "maior osso")
	ix.Put(4, "maior rio")

	hits := ix.Query([]string{"maior", "osso"}, 0)
	require.Len(t, hits, 3)
	assert.Equal(t, core.ID(3), hits[0].Id, "ties broken by lowest id")
	assert.Equal(t, core.ID(5), hits[1].Id)
	assert.Equal(t, core.ID(4), hits[2].Id)
	assert.InDelta(t, 1.0/3.0, hits[2].Score, 1e-12)

	assert.Len(t, ix.Query([]string{"maior"}, 2), 2)
	assert.Empty(t, ix.Query(nil, 10))
	assert.Empty(t, ix.Query([]string{"chocolate"}, 10))
}

func TestIndex_Exact(t *testing.T) {
	ix := NewIndex()
	ix.Put(9, boneQuestion)
	ix.Put(2, boneQuestion)

	id, ok := ix.Exact(boneQuestion)
	require.True(t, ok)
	assert.Equal(t, core.ID(2), id)

	_, ok = ix.Exact("qual o maior osso do corpo humano")
	assert.False(t, ok)

	ix.Remove(2)
	id, ok = ix.Exact(boneQuestion)
	require.True(t, ok)
	assert.Equal(t, core.ID(9), id)
}

func TestIndex_PutReplacesAndRemove(t *testing.T) {
	ix := NewIndex()
	ix.Put(1, "maior osso")
	ix.Put(1, "capital brasil")

	assert.Equal(t, 1, ix.Len())
	assert.Empty(t, ix.Query([]string{"osso"}, 10))
	assert.Zero(t, ix.Score(1, []string{"osso"}))
	assert.InDelta(t, 1.0, ix.Score(1, []string{"brasil", "capital", "brasil"}), 1e-12)

	ix.Remove(1)
	ix.Remove(42)
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.Query([]string{"brasil"}, 10))
}

func TestIndex_CloneIsIndependent(t *testing.T) {
	ix := NewIndex()
	ix.Put(1, "maior osso")

	c := ix.Clone()
	c.Put(2, "maior rio")
	c.Remove(1)

	assert.Equal(t, 1, ix.Len())
	hits := ix.Query([]string{"maior"}, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(1), hits[0].Id)

	hits = c.Query([]string{"maior"}, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(2), hits[0].Id)
}
