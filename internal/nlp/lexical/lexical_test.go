package lexical

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

func TestExtractEntities_GPE(t *testing.T) {
	e := NewExtractor()

	got, err := e.ExtractEntities(context.Background(),
		"Talks between the United States and France resumed in Papua New Guinea, while France objected.")
	require.NoError(t, err)

	texts := make([]string, len(got))
	for i, ent := range got {
		texts[i] = ent.Text
		assert.Equal(t, nlp.LabelGPE, ent.Label)
	}
	assert.Equal(t, []string{"United States", "France", "Papua New Guinea", "France"}, texts)
}

func TestExtractEntities_CaseSensitive(t *testing.T) {
	e := NewExtractor()

	got, err := e.ExtractEntities(context.Background(), "Tell us about the US economy.")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "US", got[0].Text)
}

func TestExtractEntities_Possessive(t *testing.T) {
	e := NewExtractor()

	got, err := e.ExtractEntities(context.Background(),
		"Protests spread from Paris to Kyiv, Ukraine's capital, and reached Russia’s border.")
	require.NoError(t, err)

	texts := make([]string, len(got))
	for i, ent := range got {
		texts[i] = ent.Text
	}
	assert.Equal(t, []string{"Ukraine", "Russia"}, texts)
}

func TestExtractEntities_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor().ExtractEntities(ctx, "France")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractKeywords(t *testing.T) {
	e := NewExtractor()
	text := "Climate change summit: leaders debate climate change funding. Climate finance remains contested."

	got, err := e.ExtractKeywords(context.Background(), text, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "climate", got[0].Text)
	assert.Equal(t, 1.0, got[0].Score)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i].Score, got[i-1].Score)
	}

	var texts []string
	for _, k := range got {
		texts = append(texts, k.Text)
	}
	assert.Contains(t, texts, "climate change")
}

func TestExtractKeywords_Empty(t *testing.T) {
	e := NewExtractor()

	got, err := e.ExtractKeywords(context.Background(), "the and of", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.ExtractKeywords(context.Background(), "economy", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFitTopics_SeparatesThemes(t *testing.T) {
	docs := []string{
		"football match goal striker league football",
		"league football striker scored goal",
		"goal keeper football league match",
		"election vote parliament minister ballot",
		"parliament election minister campaign vote",
		"ballot vote election parliament",
		"",
	}

	model, err := NewTopicFitter(2).FitTopics(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, TopicModelKind, model.Kind())

	a := model.Assignments()
	require.Len(t, a, len(docs))
	assert.Equal(t, a[0], a[1])
	assert.Equal(t, a[0], a[2])
	assert.Equal(t, a[3], a[4])
	assert.Equal(t, a[3], a[5])
	assert.NotEqual(t, a[0], a[3])
	assert.Equal(t, OutlierTopic, a[6])

	topics := model.Topics()
	require.Len(t, topics, 3)
	assert.Equal(t, OutlierTopic, topics[0].ID)
	assert.Equal(t, 1, topics[0].Count)

	total := 0
	for _, tp := range topics {
		total += tp.Count
	}
	assert.Equal(t, len(docs), total)
	assert.True(t, strings.HasPrefix(topics[1].Name, "0_"), topics[1].Name)
}

func TestFitTopics_FewerDocsThanTopics(t *testing.T) {
	model, err := NewTopicFitter(10).FitTopics(context.Background(), []string{"markets rally stocks"})
	require.NoError(t, err)

	topics := model.Topics()
	require.Len(t, topics, 1)
	assert.Equal(t, 0, topics[0].ID)
	assert.Equal(t, "0_markets_rally_stocks", topics[0].Name)
}

func TestFitTopics_NoDocs(t *testing.T) {
	model, err := NewTopicFitter(3).FitTopics(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, model.Topics())
	assert.Empty(t, model.Assignments())
}

func TestFitTopics_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTopicFitter(2).FitTopics(ctx, []string{"markets rally stocks", "league striker goal"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTFIDF_CapsVocabulary(t *testing.T) {
	docs := make([]string, 0, maxFeatures+2)
	for i := range maxFeatures + 1 {
		docs = append(docs, fmt.Sprintf("common term%dx", i))
	}
	docs = append(docs, "common")

	vocab, vectors := tfidf(docs)
	require.Len(t, vocab, maxFeatures)
	assert.Equal(t, "common", vocab[0])
	assert.Len(t, vectors[len(docs)-1], 1)
	for _, v := range vectors {
		var norm float64
		for _, w := range v {
			norm += w * w
		}
		assert.InDelta(t, 1, norm, 1e-9)
	}
}
