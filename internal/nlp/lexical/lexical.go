// Package lexical implements the nlp interfaces without external models:
// gazetteer entity tagging, frequency-ranked keywords and TF-IDF k-means topics.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

var (
	_ nlp.EntityExtractor  = (*Extractor)(nil)
	_ nlp.KeywordExtractor = (*Extractor)(nil)
)

type Extractor struct {
	places gazetteer
}

func NewExtractor() *Extractor {
	return &Extractor{places: newGazetteer(countries)}
}

// ExtractEntities tags the longest gazetteer phrase starting at each word as GPE.
func (e *Extractor) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := nlp.Words(text)
	for i, tok := range tokens {
		tokens[i] = stripPossessive(tok)
	}
	var out []nlp.Entity

	for i := 0; i < len(tokens); {
		matched := 0
		for n := min(maxPhrase, len(tokens)-i); n > 0; n-- {
			phrase := strings.Join(tokens[i:i+n], " ")
			if e.places.contains(phrase) {
				out = append(out, nlp.Entity{Text: phrase, Label: nlp.LabelGPE})
				matched = n
				break
			}
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}

	return out, nil
}

// stripPossessive drops a trailing 's or bare apostrophe, straight or curly.
func stripPossessive(word string) string {
	for _, suffix := range []string{"'s", "’s", "'", "’"} {
		if w, ok := strings.CutSuffix(word, suffix); ok && w != "" {
			return w
		}
	}
	return word
}

// ExtractKeywords ranks unigrams and bigrams of non-stopwords by frequency,
// bigrams weighted up. Scores are scaled so the best candidate gets 1.
func (e *Extractor) ExtractKeywords(ctx context.Context, text string, topN int) ([]nlp.Keyword, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topN <= 0 {
		return nil, nil
	}

	type candidate struct {
		text  string
		raw   float64
		first int
	}
	cands := map[string]*candidate{}
	add := func(term string, weight float64, pos int) {
		c, ok := cands[term]
		if !ok {
			c = &candidate{text: term, first: pos}
			cands[term] = c
		}
		c.raw += weight
	}

	prev := ""
	for i, w := range nlp.Words(text) {
		w = strings.ToLower(w)
		if !keywordToken(w) {
			prev = ""
			continue
		}
		add(w, 1, i)
		if prev != "" {
			add(prev+" "+w, 1.5, i)
		}
		prev = w
	}

	if len(cands) == 0 {
		return nil, nil
	}

	list := make([]*candidate, 0, len(cands))
	best := 0.0
	for _, c := range cands {
		list = append(list, c)
		best = math.Max(best, c.raw)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].raw != list[j].raw {
			return list[i].raw > list[j].raw
		}
		return list[i].first < list[j].first
	})

	if len(list) > topN {
		list = list[:topN]
	}
	out := make([]nlp.Keyword, len(list))
	for i, c := range list {
		out[i] = nlp.Keyword{Text: c.text, Score: round4(c.raw / best)}
	}
	return out, nil
}

func keywordToken(w string) bool {
	if len([]rune(w)) < 2 || nlp.IsStopword(w) {
		return false
	}
	for _, r := range w {
		if r < '0' || r > '9' {
			return true
		}
	}
	return false
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
