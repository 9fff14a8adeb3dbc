// Package nlp declares the narrow model interfaces the analytics depend on.
// Implementations live in the lexical, tagger and llm subpackages.
package nlp

import "context"

// LabelGPE tags geopolitical entities: countries, cities, states.
const LabelGPE = "GPE"

type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

type Keyword struct {
	Text  string  `json:"keyword"`
	Score float64 `json:"score"`
}

type Topic struct {
	ID       int      `json:"id"`
	Count    int      `json:"count"`
	Name     string   `json:"name"`
	Words    []string `json:"words"`
	Examples []string `json:"examples,omitempty"`
}

type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string, topN int) ([]Keyword, error)
}

type TopicModel interface {
	Kind() string
	Topics() []Topic
	// Assignments holds the topic id of every fitted document, in input order.
	Assignments() []int
}

type TopicFitter interface {
	FitTopics(ctx context.Context, docs []string) (TopicModel, error)
}
