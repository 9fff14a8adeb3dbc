// Package llm implements the nlp extraction interfaces by prompting a chat model for JSON.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

// Completer sends one system + user prompt pair and returns the raw model reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

var (
	_ nlp.EntityExtractor  = (*Extractor)(nil)
	_ nlp.KeywordExtractor = (*Extractor)(nil)
)

const (
	entitiesPrompt = `You are a named-entity recognizer. Return JSON of the form ` +
		`{"entities":[{"text":"...","label":"..."}]} listing entities in order of appearance, ` +
		`repeating an entity each time it occurs. Use label "GPE" for countries, cities and states, ` +
		`"PERSON" for people and "ORGANIZATION" for organizations.`

	keywordsPrompt = `You extract keywords. Return JSON of the form ` +
		`{"keywords":[{"keyword":"...","score":0.0}]} with at most %d keywords or two-word keyphrases ` +
		`taken from the text, score being relevance between 0 and 1, most relevant first.`

	maxInputRunes = 8000
)

type Extractor struct {
	client  Completer
	limiter *rate.Limiter
	timeout time.Duration
}

// NewExtractor limits calls to rps per second (unlimited when rps <= 0) and
// bounds each call by timeout (unbounded when zero).
func NewExtractor(client Completer, rps float64, timeout time.Duration) *Extractor {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Extractor{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
	}
}

func (e *Extractor) ExtractEntities(ctx context.Context, text string) ([]nlp.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var reply struct {
		Entities []nlp.Entity `json:"entities"`
	}
	if err := e.ask(ctx, entitiesPrompt, text, &reply); err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}

	out := reply.Entities[:0]
	for _, ent := range reply.Entities {
		ent.Text = strings.TrimSpace(ent.Text)
		ent.Label = strings.ToUpper(strings.TrimSpace(ent.Label))
		if ent.Text != "" {
			out = append(out, ent)
		}
	}
	return out, nil
}

func (e *Extractor) ExtractKeywords(ctx context.Context, text string, topN int) ([]nlp.Keyword, error) {
	if strings.TrimSpace(text) == "" || topN <= 0 {
		return nil, nil
	}

	var reply struct {
		Keywords []nlp.Keyword `json:"keywords"`
	}
	if err := e.ask(ctx, fmt.Sprintf(keywordsPrompt, topN), text, &reply); err != nil {
		return nil, fmt.Errorf("extract keywords: %w", err)
	}

	out := reply.Keywords[:0]
	for _, kw := range reply.Keywords {
		kw.Text = strings.ToLower(strings.TrimSpace(kw.Text))
		if kw.Text != "" {
			out = append(out, kw)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

func (e *Extractor) ask(ctx context.Context, system, text string, v any) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.client.Complete(ctx, system, truncate(text, maxInputRunes))
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripFence(raw)), v); err != nil {
		return fmt.Errorf("decode model reply: %w", err)
	}
	return nil
}

// stripFence removes a ```json ... ``` wrapper some models add despite JSON mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
