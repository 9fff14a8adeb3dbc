package lexical

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/0x0BSoD/newsInsight/internal/nlp"
)

const (
	TopicModelKind = "tfidf-kmeans"

	// OutlierTopic collects documents with no usable terms.
	OutlierTopic = -1

	// maxFeatures caps the vocabulary at the terms found in most documents.
	maxFeatures = 2000
	restarts    = 10
	topicWords  = 10
	nameWords   = 4
)

var _ nlp.TopicFitter = (*TopicFitter)(nil)

type TopicFitter struct {
	k int
}

// NewTopicFitter clusters documents into at most k topics.
func NewTopicFitter(k int) *TopicFitter {
	if k < 1 {
		k = 1
	}
	return &TopicFitter{k: k}
}

type TopicModel struct {
	topics      []nlp.Topic
	assignments []int
}

func (m *TopicModel) Kind() string        { return TopicModelKind }
func (m *TopicModel) Topics() []nlp.Topic { return m.topics }
func (m *TopicModel) Assignments() []int  { return m.assignments }

type sparse map[int]float64

// FitTopics partitions the TF-IDF vectors with k-means, keeping the best of
// several randomly seeded runs by within-cluster sum of squares.
func (f *TopicFitter) FitTopics(ctx context.Context, docs []string) (nlp.TopicModel, error) {
	vocab, vectors := tfidf(docs)

	assignments := make([]int, len(docs))
	var live []int
	for i, v := range vectors {
		if len(v) == 0 {
			assignments[i] = OutlierTopic
			continue
		}
		live = append(live, i)
	}

	k := min(f.k, len(live))
	if k == 0 {
		return &TopicModel{topics: outlierOnly(len(docs)), assignments: assignments}, nil
	}

	dataset := make(clusters.Observations, len(live))
	for i, doc := range live {
		dataset[i] = clusters.Coordinates(dense(vectors[doc], len(vocab)))
	}

	km := kmeans.New()
	var (
		best      map[int]int
		centroids [][]float64
		bestSSE   = math.Inf(1)
	)
	for range restarts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cc, err := km.Partition(dataset, k)
		if err != nil {
			return nil, fmt.Errorf("partition %d documents: %w", len(live), err)
		}

		cluster := make(map[int]int, len(live))
		for i, doc := range live {
			cluster[doc] = cc.Nearest(dataset[i])
		}
		means := centroidsOf(vectors, cluster, k, len(vocab))
		if sse := sumSquares(vectors, cluster, means); sse < bestSSE {
			best, centroids, bestSSE = cluster, means, sse
		}
	}

	return buildModel(vocab, centroids, best, assignments), nil
}

// tfidf returns the vocabulary and one L2-normalised sparse vector per document.
// Terms keep their first-seen order; past maxFeatures only the terms with the
// highest document frequency are kept.
func tfidf(docs []string) ([]string, []sparse) {
	index := map[string]int{}
	var terms []string
	counts := make([]map[int]int, len(docs))
	df := map[int]int{}

	for i, doc := range docs {
		counts[i] = map[int]int{}
		for _, w := range nlp.Words(doc) {
			w = strings.ToLower(w)
			if len([]rune(w)) < 3 || !keywordToken(w) {
				continue
			}
			id, ok := index[w]
			if !ok {
				id = len(terms)
				index[w] = id
				terms = append(terms, w)
			}
			if counts[i][id] == 0 {
				df[id]++
			}
			counts[i][id]++
		}
	}

	keep := make([]int, len(terms))
	for id := range terms {
		keep[id] = id
	}
	if len(keep) > maxFeatures {
		sort.SliceStable(keep, func(i, j int) bool { return df[keep[i]] > df[keep[j]] })
		keep = keep[:maxFeatures]
		sort.Ints(keep)
	}

	vocab := make([]string, len(keep))
	column := make(map[int]int, len(keep))
	for col, id := range keep {
		vocab[col] = terms[id]
		column[id] = col
	}

	n := float64(len(docs))
	vectors := make([]sparse, len(docs))
	for i, tf := range counts {
		v := sparse{}
		var norm float64
		for id, c := range tf {
			col, ok := column[id]
			if !ok {
				continue
			}
			w := float64(c) * (math.Log((1+n)/(1+float64(df[id]))) + 1)
			v[col] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		for col := range v {
			v[col] /= norm
		}
		vectors[i] = v
	}

	return vocab, vectors
}

// centroidsOf averages the vectors of each cluster. Empty clusters get a zero centroid.
func centroidsOf(vectors []sparse, cluster map[int]int, k, dim int) [][]float64 {
	means := make([][]float64, k)
	sizes := make([]int, k)
	for c := range means {
		means[c] = make([]float64, dim)
	}
	for doc, c := range cluster {
		sizes[c]++
		for col, w := range vectors[doc] {
			means[c][col] += w
		}
	}
	for c, mean := range means {
		if sizes[c] == 0 {
			continue
		}
		for col := range mean {
			mean[col] /= float64(sizes[c])
		}
	}
	return means
}

func sumSquares(vectors []sparse, cluster map[int]int, means [][]float64) float64 {
	var total float64
	for doc, c := range cluster {
		mean := means[c]
		// |v-m|^2 = |v|^2 - 2v.m + |m|^2, with |v| = 1
		total += 1 - 2*dot(vectors[doc], mean) + dotDense(mean, mean)
	}
	return total
}

func buildModel(vocab []string, centroids [][]float64, cluster map[int]int, assignments []int) *TopicModel {
	sizes := make([]int, len(centroids))
	for _, c := range cluster {
		sizes[c]++
	}

	// topic ids follow cluster size, largest first
	order := make([]int, 0, len(centroids))
	for c := range centroids {
		if sizes[c] > 0 {
			order = append(order, c)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return sizes[order[i]] > sizes[order[j]] })

	remap := make(map[int]int, len(order))
	var topics []nlp.Topic

	outliers := 0
	for _, a := range assignments {
		if a == OutlierTopic {
			outliers++
		}
	}
	if outliers > 0 {
		topics = append(topics, outlierTopic(outliers))
	}

	for id, c := range order {
		remap[c] = id
		words := topTerms(vocab, centroids[c], topicWords)
		topics = append(topics, nlp.Topic{
			ID:    id,
			Count: sizes[c],
			Name:  topicName(id, words),
			Words: words,
		})
	}

	for doc, c := range cluster {
		assignments[doc] = remap[c]
	}

	return &TopicModel{topics: topics, assignments: assignments}
}

func topTerms(vocab []string, centroid []float64, n int) []string {
	ids := make([]int, 0, len(centroid))
	for id, w := range centroid {
		if w > 0 {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool { return centroid[ids[i]] > centroid[ids[j]] })
	if len(ids) > n {
		ids = ids[:n]
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = vocab[id]
	}
	return out
}

func topicName(id int, words []string) string {
	if len(words) > nameWords {
		words = words[:nameWords]
	}
	return fmt.Sprintf("%d_%s", id, strings.Join(words, "_"))
}

func outlierTopic(count int) nlp.Topic {
	return nlp.Topic{ID: OutlierTopic, Count: count, Name: "-1_outliers"}
}

func outlierOnly(count int) []nlp.Topic {
	if count == 0 {
		return nil
	}
	return []nlp.Topic{outlierTopic(count)}
}

func dense(v sparse, dim int) []float64 {
	out := make([]float64, dim)
	for id, w := range v {
		out[id] = w
	}
	return out
}

func dot(v sparse, centroid []float64) float64 {
	var s float64
	for id, w := range v {
		s += w * centroid[id]
	}
	return s
}

func dotDense(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
