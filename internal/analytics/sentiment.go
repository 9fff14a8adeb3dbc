package analytics

import (
	"sort"

	"github.com/samber/lo"

	"github.com/0x0BSoD/newsInsight/internal/model"
)

type SentimentDistribution struct {
	Source   string  `json:"source"`
	Positive int     `json:"positive"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Total    int     `json:"total"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
}

// WebsiteSentimentDistribution counts title sentiment labels per source.
// Labels outside Positive/Neutral/Negative are dropped. Total, Mean and
// Median cover the three label columns only. Rows are sorted by source.
func WebsiteSentimentDistribution(articles []model.Article) []SentimentDistribution {
	bySource := lo.GroupBy(articles, func(a model.Article) string { return a.SourceName })

	out := make([]SentimentDistribution, 0, len(bySource))
	for source, rows := range bySource {
		labels := lo.CountValues(lo.Map(rows, func(a model.Article, _ int) string { return a.TitleSentiment }))

		d := SentimentDistribution{
			Source:   source,
			Positive: labels[model.SentimentPositive],
			Neutral:  labels[model.SentimentNeutral],
			Negative: labels[model.SentimentNegative],
		}
		cols := []int{d.Positive, d.Neutral, d.Negative}
		d.Total = lo.Sum(cols)
		d.Mean = float64(d.Total) / float64(len(cols))
		d.Median = median3(cols)
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func median3(v []int) float64 {
	s := append([]int(nil), v...)
	sort.Ints(s)
	return float64(s[len(s)/2])
}
