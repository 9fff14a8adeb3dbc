// Package analytics holds the text analytics computed over stored articles:
// country mentions, sentiment distribution, keyword similarity and topics.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

// ExtractCountries returns the geopolitical entities found in text in order
// of appearance, duplicates kept.
func ExtractCountries(ctx context.Context, ex nlp.EntityExtractor, text string) ([]string, error) {
	entities, err := ex.ExtractEntities(ctx, text)
	if err != nil {
		return nil, err
	}

	var countries []string
	for _, ent := range entities {
		if ent.Label == nlp.LabelGPE {
			countries = append(countries, ent.Text)
		}
	}
	return countries, nil
}

// FindPopularArticles counts country mentions in the content of the first
// maxRows articles. Rows past maxRows are never looked at.
func FindPopularArticles(ctx context.Context, ex nlp.EntityExtractor, articles []model.Article, maxRows int) (map[string]int, error) {
	counts := make(map[string]int)
	if maxRows <= 0 {
		return counts, nil
	}
	if maxRows > len(articles) {
		maxRows = len(articles)
	}

	for i, a := range articles[:maxRows] {
		countries, err := ExtractCountries(ctx, ex, a.Content)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}
		for _, c := range countries {
			counts[c]++
		}
	}
	return counts, nil
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// RankCountries orders counts by count descending, then by country name.
func RankCountries(counts map[string]int) []CountryCount {
	out := make([]CountryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CountryCount{Country: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Country < out[j].Country
	})
	return out
}
