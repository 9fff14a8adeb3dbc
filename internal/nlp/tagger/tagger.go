// Package tagger implements entity extraction with prose's statistical
// tokenizer, part-of-speech tagger and named-entity chunker.
package tagger

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"

	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

var _ nlp.EntityExtractor = (*Extractor)(nil)

type Extractor struct {
	// prose does not document its model as safe for concurrent use.
	mu    sync.Mutex
	model *prose.Model
}

// NewExtractor loads the bundled English model once; it is shared by every call.
func NewExtractor() *Extractor {
	return &Extractor{model: prose.ModelFromData("newsinsight")}
}

// ExtractEntities returns PERSON and GPE chunks in order of appearance,
// repeating an entity each time it occurs.
func (e *Extractor) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	e.mu.Lock()
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.UsingModel(e.model),
	)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("tag text: %w", err)
	}

	return entities(doc.Entities()), nil
}

func entities(in []prose.Entity) []nlp.Entity {
	out := make([]nlp.Entity, 0, len(in))
	for _, ent := range in {
		text := strings.TrimSpace(ent.Text)
		if text == "" || ent.Label == "" {
			continue
		}
		out = append(out, nlp.Entity{Text: text, Label: strings.ToUpper(ent.Label)})
	}
	return out
}
