// Package ingest loads CSV exports and writes them into storage.
package ingest

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/0x0BSoD/newsInsight/internal/model"
	"github.com/0x0BSoD/newsInsight/internal/table"
)

type TableLoader interface {
	Load(path string) (*table.Table, error)
	Cached(path string) bool
	Forget(path string)
}

type DomainStorage interface {
	InsertDomainLocations(ctx context.Context, rows []model.LocationRow) (map[string]int64, error)
	InsertDomains(ctx context.Context, rows []model.DomainRow) (int, error)
}

type TrafficStorage interface {
	InsertTrafficData(ctx context.Context, rows []model.TrafficRow) error
}

type ArticleStorage interface {
	InsertArticles(ctx context.Context, rows []model.ArticleRow) error
}

// Files names the CSV exports to ingest; empty paths are skipped.
type Files struct {
	Locations string
	Domains   string
	Traffic   string
	Articles  string
}

type Service struct {
	loader   TableLoader
	domains  DomainStorage
	traffic  TrafficStorage
	articles ArticleStorage
	log      logrus.FieldLogger
}

func New(
	loader TableLoader,
	domains DomainStorage,
	traffic TrafficStorage,
	articles ArticleStorage,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		loader:   loader,
		domains:  domains,
		traffic:  traffic,
		articles: articles,
		log:      log.WithField("component", "ingest"),
	}
}

// Run ingests files in dependency order: locations, domains, traffic, articles.
// The first failing file stops the run; files already written stay committed.
// A path named by several kinds is parsed once, and every parsed table is
// released when the run returns.
func (s *Service) Run(ctx context.Context, files Files) error {
	steps := []struct {
		kind string
		path string
		fn   func(context.Context, string) (int, error)
	}{
		{"locations", files.Locations, s.Locations},
		{"domains", files.Domains, s.Domains},
		{"traffic", files.Traffic, s.Traffic},
		{"articles", files.Articles, s.Articles},
	}

	defer func() {
		for _, step := range steps {
			if step.path != "" {
				s.loader.Forget(step.path)
			}
		}
	}()

	for _, step := range steps {
		if step.path == "" {
			continue
		}
		log := s.log.WithFields(logrus.Fields{"kind": step.kind, "file": step.path})
		if s.loader.Cached(step.path) {
			log.Debug("reusing parsed file")
		}
		n, err := step.fn(ctx, step.path)
		if err != nil {
			return fmt.Errorf("ingest %s from %s: %w", step.kind, step.path, err)
		}
		log.WithField("rows", n).Info("ingested")
	}
	return nil
}

func (s *Service) Locations(ctx context.Context, path string) (int, error) {
	t, err := s.loader.Load(path)
	if err != nil {
		return 0, err
	}
	rows, err := LocationRows(t)
	if err != nil {
		return 0, err
	}
	ids, err := s.domains.InsertDomainLocations(ctx, rows)
	if err != nil {
		return 0, err
	}
	if len(ids) < len(rows) {
		s.log.WithField("distinct", len(ids)).Debug("location names repeat, last id wins in the returned mapping")
	}
	return len(rows), nil
}

func (s *Service) Domains(ctx context.Context, path string) (int, error) {
	t, err := s.loader.Load(path)
	if err != nil {
		return 0, err
	}
	rows, err := DomainRows(t)
	if err != nil {
		return 0, err
	}
	n, err := s.domains.InsertDomains(ctx, rows)
	if err != nil {
		return 0, err
	}
	if skipped := len(rows) - n; skipped > 0 {
		s.log.WithField("skipped", skipped).Debug("domains without a matching location were skipped")
	}
	return n, nil
}

func (s *Service) Traffic(ctx context.Context, path string) (int, error) {
	t, err := s.loader.Load(path)
	if err != nil {
		return 0, err
	}
	rows, err := TrafficRows(t)
	if err != nil {
		return 0, err
	}
	if err := s.traffic.InsertTrafficData(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Service) Articles(ctx context.Context, path string) (int, error) {
	t, err := s.loader.Load(path)
	if err != nil {
		return 0, err
	}
	rows, err := ArticleRows(t)
	if err != nil {
		return 0, err
	}
	if err := s.articles.InsertArticles(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
