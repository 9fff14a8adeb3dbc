package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

const (
	DefaultTopicSampleSize = 1000
	TopicInfoArtifact      = "topic_info.csv"

	topicExamples = 3
)

// RunLogger is the experiment tracking sink a topic fit reports to.
type RunLogger interface {
	LogParams(params map[string]any) error
	LogArtifact(name string, data []byte) error
}

type TopicOptions struct {
	// SampleSize caps the number of articles fitted; zero means DefaultTopicSampleSize.
	SampleSize int
}

// TopicModeling fits topics over a random sample of articles (title and
// content joined, stopwords removed) and logs the run to tracker. Each topic
// carries up to three distinct titles of the sampled articles assigned to it.
func TopicModeling(
	ctx context.Context,
	fitter nlp.TopicFitter,
	tracker RunLogger,
	articles []model.Article,
	opts TopicOptions,
) ([]nlp.Topic, nlp.TopicModel, error) {
	size := opts.SampleSize
	if size <= 0 {
		size = DefaultTopicSampleSize
	}

	sample := articles
	if len(articles) > size {
		sample = lo.Samples(articles, size)
	}

	docs := lo.Map(sample, func(a model.Article, _ int) string {
		return nlp.StripStopwords(a.Title + " " + a.Content)
	})

	tm, err := fitter.FitTopics(ctx, docs)
	if err != nil {
		return nil, nil, fmt.Errorf("fit topics: %w", err)
	}
	topics := withExamples(tm.Topics(), tm.Assignments(), sample)

	if err := tracker.LogParams(map[string]any{
		"model_type": tm.Kind(),
		"n_topics":   len(topics),
		"n_samples":  len(docs),
	}); err != nil {
		return nil, nil, fmt.Errorf("log params: %w", err)
	}

	info, err := topicInfoCSV(topics)
	if err != nil {
		return nil, nil, err
	}
	if err := tracker.LogArtifact(TopicInfoArtifact, info); err != nil {
		return nil, nil, fmt.Errorf("log artifact: %w", err)
	}

	return topics, tm, nil
}

func withExamples(topics []nlp.Topic, assignments []int, sample []model.Article) []nlp.Topic {
	titles := map[int][]string{}
	for i, topic := range assignments {
		if i >= len(sample) {
			break
		}
		title := strings.TrimSpace(sample[i].Title)
		if title == "" || len(titles[topic]) == topicExamples || lo.Contains(titles[topic], title) {
			continue
		}
		titles[topic] = append(titles[topic], title)
	}

	out := make([]nlp.Topic, len(topics))
	for i, t := range topics {
		t.Examples = titles[t.ID]
		out[i] = t
	}
	return out
}

func topicInfoCSV(topics []nlp.Topic) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Topic", "Count", "Name", "Representation", "Representative_Docs"}); err != nil {
		return nil, err
	}
	for _, t := range topics {
		row := []string{
			strconv.Itoa(t.ID),
			strconv.Itoa(t.Count),
			t.Name,
			strings.Join(t.Words, " "),
			strings.Join(t.Examples, " | "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write topic info: %w", err)
	}
	return buf.Bytes(), nil
}
