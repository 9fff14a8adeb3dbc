package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

// KeywordsPerText is how many keywords are kept per title or content.
const KeywordsPerText = 5

// KeywordExtraction extracts the top keywords of every article title and
// content independently. Both results are aligned with articles.
func KeywordExtraction(ctx context.Context, kx nlp.KeywordExtractor, articles []model.Article) ([][]nlp.Keyword, [][]nlp.Keyword, error) {
	titles := make([][]nlp.Keyword, len(articles))
	contents := make([][]nlp.Keyword, len(articles))

	for i, a := range articles {
		var err error
		if titles[i], err = kx.ExtractKeywords(ctx, a.Title, KeywordsPerText); err != nil {
			return nil, nil, fmt.Errorf("title keywords of article %d: %w", i, err)
		}
		if contents[i], err = kx.ExtractKeywords(ctx, a.Content, KeywordsPerText); err != nil {
			return nil, nil, fmt.Errorf("content keywords of article %d: %w", i, err)
		}
	}
	return titles, contents, nil
}

// CalculateSimilarity returns the cosine similarity of each title/content
// keyword pair, over the union of their keywords. A row missing on one side
// counts as empty. Empty or all-zero vectors score 0.
func CalculateSimilarity(title, content [][]nlp.Keyword) []float64 {
	n := max(len(title), len(content))
	out := make([]float64, n)
	for i := range n {
		var t, c []nlp.Keyword
		if i < len(title) {
			t = title[i]
		}
		if i < len(content) {
			c = content[i]
		}
		out[i] = cosine(t, c)
	}
	return out
}

func cosine(a, b []nlp.Keyword) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	av, bv := scoreMap(a), scoreMap(b)

	var dot, na, nb float64
	for k, x := range av {
		na += x * x
		dot += x * bv[k]
	}
	for _, y := range bv {
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// scoreMap keeps the last score of a keyword listed more than once.
func scoreMap(kws []nlp.Keyword) map[string]float64 {
	m := make(map[string]float64, len(kws))
	for _, kw := range kws {
		m[kw.Text] = kw.Score
	}
	return m
}

type ArticleSimilarity struct {
	ArticleID  int64         `json:"article_id"`
	Title      string        `json:"title"`
	Similarity float64       `json:"similarity"`
	TitleKW    []nlp.Keyword `json:"title_keywords"`
	ContentKW  []nlp.Keyword `json:"content_keywords"`
}

// KeywordSimilarity runs KeywordExtraction and CalculateSimilarity and pairs
// the scores with their articles, keeping article order.
func KeywordSimilarity(ctx context.Context, kx nlp.KeywordExtractor, articles []model.Article) ([]ArticleSimilarity, error) {
	titles, contents, err := KeywordExtraction(ctx, kx, articles)
	if err != nil {
		return nil, err
	}
	scores := CalculateSimilarity(titles, contents)

	out := make([]ArticleSimilarity, len(articles))
	for i, a := range articles {
		out[i] = ArticleSimilarity{
			ArticleID:  a.ID,
			Title:      a.Title,
			Similarity: scores[i],
			TitleKW:    titles[i],
			ContentKW:  contents[i],
		}
	}
	return out, nil
}
