package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/newsInsight/internal/logger"
	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/nlp/lexical"
	"github.com/0x0BSoD/newsInsight/internal/tracking"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeStore struct {
	articles  []model.Article
	domains   []model.Domain
	locations []model.DomainLocation
	traffic   []model.TrafficRecord
	err       error

	from, to time.Time
}

func (f *fakeStore) ReadArticlesBetween(_ context.Context, from, to time.Time) ([]model.Article, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Article
	for _, a := range f.articles {
		if (from.IsZero() || !a.PublishedAt.Before(from)) && (to.IsZero() || a.PublishedAt.Before(to)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ReadDomains(context.Context) ([]model.Domain, error) { return f.domains, f.err }
func (f *fakeStore) ReadDomainLocations(context.Context) ([]model.DomainLocation, error) {
	return f.locations, f.err
}
func (f *fakeStore) ReadTrafficData(context.Context) ([]model.TrafficRecord, error) {
	return f.traffic, f.err
}

func loc(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }

func TestDayRange(t *testing.T) {
	from, to := DayRange(day("2023-10-01 15:00"), day("2023-10-03 09:00"))
	assert.Equal(t, day("2023-10-01 00:00"), from)
	assert.Equal(t, day("2023-10-04 00:00"), to)

	from, to = DayRange(time.Time{}, time.Time{})
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestSourceCountsAndTopBottom(t *testing.T) {
	var articles []model.Article
	for source, n := range map[string]int{"a": 7, "b": 1, "c": 4, "d": 4, "e": 2, "f": 9, "g": 3} {
		for range n {
			articles = append(articles, model.Article{SourceName: source})
		}
	}

	counts := SourceCounts(articles)
	require.Len(t, counts, 7)
	assert.Equal(t, SourceCount{Source: "f", Count: 9}, counts[0])
	assert.Equal(t, SourceCount{Source: "c", Count: 4}, counts[2])
	assert.Equal(t, SourceCount{Source: "d", Count: 4}, counts[3])

	top, bottom := TopBottom(counts, 5)
	assert.Equal(t, []string{"f", "a", "c", "d", "g"}, sources(top))
	assert.Equal(t, []string{"b", "e", "g", "d", "c"}, sources(bottom))

	top, bottom = TopBottom(counts[:2], 5)
	assert.Len(t, top, 2)
	assert.Equal(t, []string{"a", "f"}, sources(bottom))
}

func sources(cc []SourceCount) []string {
	out := make([]string, len(cc))
	for i, c := range cc {
		out[i] = c.Source
	}
	return out
}

func TestDomainsByCountry(t *testing.T) {
	locations := []model.DomainLocation{
		{ID: 1, Country: "US"}, {ID: 2, Country: "GB"}, {ID: 3, Country: "FR"},
		{ID: 4, Country: "DE"}, {ID: 5, Country: "KE"}, {ID: 6, Country: "NG"}, {ID: 7, Country: "IN"},
	}
	domains := []model.Domain{
		{Name: "a", LocationID: loc(1)}, {Name: "b", LocationID: loc(1)}, {Name: "c", LocationID: loc(1)},
		{Name: "d", LocationID: loc(2)}, {Name: "e", LocationID: loc(2)},
		{Name: "f", LocationID: loc(3)}, {Name: "g", LocationID: loc(4)}, {Name: "h", LocationID: loc(5)},
		{Name: "i", LocationID: loc(6)}, {Name: "j", LocationID: loc(7)},
		{Name: "k"}, {Name: "l", LocationID: loc(99)},
	}

	got := DomainsByCountry(domains, locations, 5)
	assert.Equal(t, []CountryDomains{
		{Country: "US", Domains: 3},
		{Country: "GB", Domains: 2},
		{Country: "DE", Domains: 1},
		{Country: "FR", Domains: 1},
		{Country: "IN", Domains: 1},
		{Country: OtherCountry, Domains: 2},
	}, got)

	assert.Equal(t, []CountryDomains{{Country: OtherCountry}}, DomainsByCountry(nil, nil, 5))
}

func TestDailyCounts(t *testing.T) {
	got := DailyCounts([]model.Article{
		{PublishedAt: day("2023-10-02 23:59")},
		{PublishedAt: day("2023-10-01 08:00")},
		{PublishedAt: day("2023-10-02 00:00")},
	})
	assert.Equal(t, []DayCount{{Day: "2023-10-01", Count: 1}, {Day: "2023-10-02", Count: 2}}, got)
}

func TestTopTraffic(t *testing.T) {
	domains := []model.Domain{{ID: 1, Name: "google.com"}, {ID: 2, Name: "bbc.co.uk"}, {ID: 3, Name: "tiny.example"}}
	records := []model.TrafficRecord{
		{DomainID: 2, GlobalRank: 90},
		{DomainID: 3, GlobalRank: 0},
		{DomainID: 1, GlobalRank: 1, TldRank: 1},
	}

	got := TopTraffic(records, domains, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "google.com", got[0].Domain)
	assert.Equal(t, "bbc.co.uk", got[1].Domain)

	assert.Len(t, TopTraffic(records, domains, 1), 1)
}

func newService(store Store, root string) *Service {
	ex := lexical.NewExtractor()
	return New(store, ex, ex, lexical.NewTopicFitter(2), tracking.NewFileStore(root),
		Config{PopularMaxRows: 2, TopicSampleSize: 100}, logger.Discard())
}

func TestService_SourcesUsesInclusiveDays(t *testing.T) {
	store := &fakeStore{articles: []model.Article{
		{SourceName: "a", PublishedAt: day("2023-10-01 10:00")},
		{SourceName: "a", PublishedAt: day("2023-10-02 23:00")},
		{SourceName: "b", PublishedAt: day("2023-10-03 01:00")},
	}}

	got, err := newService(store, t.TempDir()).Sources(context.Background(), day("2023-10-01 00:00"), day("2023-10-02 00:00"), 0)
	require.NoError(t, err)
	assert.Equal(t, []SourceCount{{Source: "a", Count: 2}}, got.Top)
	assert.Equal(t, day("2023-10-03 00:00"), store.to)
}

func TestService_Mentions(t *testing.T) {
	store := &fakeStore{articles: []model.Article{
		{Content: "Kenya and France signed a deal."},
		{Content: "France again."},
		{Content: "Peru is never scanned."},
	}}

	got, err := newService(store, t.TempDir()).Mentions(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "France", got[0].Country)
	assert.Equal(t, 2, got[0].Count)
	for _, c := range got {
		assert.NotEqual(t, "Peru", c.Country)
	}
}

func TestService_TopicsRecordsRun(t *testing.T) {
	root := t.TempDir()
	store := &fakeStore{articles: []model.Article{
		{Title: "Football", Content: "league match striker goal"},
		{Title: "Football", Content: "league striker goal keeper"},
		{Title: "Election", Content: "parliament vote minister ballot"},
		{Title: "Election", Content: "ballot vote parliament campaign"},
	}}

	got, err := newService(store, root).Topics(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Topics, 2)
	for _, topic := range got.Topics {
		assert.Len(t, topic.Examples, 1)
	}

	runs, err := tracking.NewFileStore(root).Runs(TopicExperiment)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	meta := runs[0]
	assert.Equal(t, got.RunID, meta.RunID)
	assert.Equal(t, got.Dir, meta.Dir)
	assert.Equal(t, tracking.StatusFinished, meta.Status)
	assert.FileExists(t, filepath.Join(got.Dir, "artifacts", "topic_info.csv"))
	assert.FileExists(t, filepath.Join(got.Dir, "params.yaml"))
}

func TestService_StoreError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newService(&fakeStore{err: boom}, t.TempDir())

	_, err := svc.Countries(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = svc.Traffic(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
	_, err = svc.Timeline(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, boom)
}
