package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/0x0BSoD/newsInsight/internal/analytics"
	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/nlp"
	"github.com/0x0BSoD/newsInsight/internal/tracking"
)

const TopicExperiment = "topic_modeling"

type Store interface {
	ReadArticlesBetween(ctx context.Context, from, to time.Time) ([]model.Article, error)
	ReadDomains(ctx context.Context) ([]model.Domain, error)
	ReadDomainLocations(ctx context.Context) ([]model.DomainLocation, error)
	ReadTrafficData(ctx context.Context) ([]model.TrafficRecord, error)
}

type Tracker interface {
	Start(experiment string) (*tracking.Run, error)
}

type Config struct {
	PopularMaxRows  int
	TopicSampleSize int
}

type Service struct {
	store    Store
	entities nlp.EntityExtractor
	keywords nlp.KeywordExtractor
	topics   nlp.TopicFitter
	tracker  Tracker
	cfg      Config
	log      logrus.FieldLogger
}

func New(
	store Store,
	entities nlp.EntityExtractor,
	keywords nlp.KeywordExtractor,
	topics nlp.TopicFitter,
	tracker Tracker,
	cfg Config,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		store:    store,
		entities: entities,
		keywords: keywords,
		topics:   topics,
		tracker:  tracker,
		cfg:      cfg,
		log:      log.WithField("component", "dashboard"),
	}
}

type SourcesReport struct {
	Top    []SourceCount `json:"top"`
	Bottom []SourceCount `json:"bottom"`
}

// Sources reports the sources with most and fewest articles published
// between the inclusive days from and to.
func (s *Service) Sources(ctx context.Context, from, to time.Time, n int) (SourcesReport, error) {
	articles, err := s.articles(ctx, from, to)
	if err != nil {
		return SourcesReport{}, err
	}
	if n <= 0 {
		n = DefaultTopN
	}
	top, bottom := TopBottom(SourceCounts(articles), n)
	return SourcesReport{Top: top, Bottom: bottom}, nil
}

func (s *Service) Countries(ctx context.Context) ([]CountryDomains, error) {
	domains, err := s.store.ReadDomains(ctx)
	if err != nil {
		return nil, err
	}
	locations, err := s.store.ReadDomainLocations(ctx)
	if err != nil {
		return nil, err
	}
	return DomainsByCountry(domains, locations, DefaultTopN), nil
}

func (s *Service) Timeline(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	articles, err := s.articles(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return DailyCounts(articles), nil
}

func (s *Service) Traffic(ctx context.Context, limit int) ([]TrafficRank, error) {
	records, err := s.store.ReadTrafficData(ctx)
	if err != nil {
		return nil, err
	}
	domains, err := s.store.ReadDomains(ctx)
	if err != nil {
		return nil, err
	}
	return TopTraffic(records, domains, limit), nil
}

func (s *Service) Sentiment(ctx context.Context, from, to time.Time) ([]analytics.SentimentDistribution, error) {
	articles, err := s.articles(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return analytics.WebsiteSentimentDistribution(articles), nil
}

// Mentions counts countries named in the first maxRows articles; maxRows <= 0
// falls back to the configured default.
func (s *Service) Mentions(ctx context.Context, maxRows int) ([]analytics.CountryCount, error) {
	if maxRows <= 0 {
		maxRows = s.cfg.PopularMaxRows
	}
	articles, err := s.store.ReadArticlesBetween(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	counts, err := analytics.FindPopularArticles(ctx, s.entities, articles, maxRows)
	if err != nil {
		return nil, fmt.Errorf("find popular articles: %w", err)
	}
	return analytics.RankCountries(counts), nil
}

// Similarity scores title/content keyword similarity for the first limit
// articles, all of them when limit <= 0.
func (s *Service) Similarity(ctx context.Context, limit int) ([]analytics.ArticleSimilarity, error) {
	articles, err := s.store.ReadArticlesBetween(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return analytics.KeywordSimilarity(ctx, s.keywords, articles)
}

// TopicRun is a fitted topic model together with the tracking run that recorded it.
type TopicRun struct {
	RunID  string      `json:"run_id"`
	Dir    string      `json:"-"`
	Topics []nlp.Topic `json:"topics"`
}

// Topics fits a topic model over a sample of all articles, recording the fit
// as a tracking run.
func (s *Service) Topics(ctx context.Context) (TopicRun, error) {
	articles, err := s.store.ReadArticlesBetween(ctx, time.Time{}, time.Time{})
	if err != nil {
		return TopicRun{}, err
	}

	run, err := s.tracker.Start(TopicExperiment)
	if err != nil {
		return TopicRun{}, fmt.Errorf("start tracking run: %w", err)
	}
	log := s.log.WithField("run", run.ID())

	topics, _, fitErr := analytics.TopicModeling(ctx, s.topics, run, articles, analytics.TopicOptions{
		SampleSize: s.cfg.TopicSampleSize,
	})
	if err := run.End(fitErr); err != nil {
		log.WithError(err).Warn("failed to close tracking run")
	}
	if fitErr != nil {
		return TopicRun{}, fitErr
	}

	log.WithFields(logrus.Fields{"topics": len(topics), "dir": run.Dir()}).Info("topic model fitted")
	return TopicRun{RunID: run.ID(), Dir: run.Dir(), Topics: topics}, nil
}

func (s *Service) articles(ctx context.Context, from, to time.Time) ([]model.Article, error) {
	from, to = DayRange(from, to)
	return s.store.ReadArticlesBetween(ctx, from, to)
}
