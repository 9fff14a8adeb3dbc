package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/newsInsight/internal/model"
)

type ArticleStorage struct {
	db *sqlx.DB
}

func NewArticleStorage(db *sqlx.DB) *ArticleStorage {
	return &ArticleStorage{db: db}
}

var articleColumns = []string{
	"id",
	"COALESCE(source_name, '') AS source_name",
	"COALESCE(author, '') AS author",
	"COALESCE(title, '') AS title",
	"COALESCE(description, '') AS description",
	"COALESCE(url, '') AS url",
	"COALESCE(url_to_image, '') AS url_to_image",
	"published_at",
	"COALESCE(content, '') AS content",
	"COALESCE(category, '') AS category",
	"COALESCE(article, '') AS article",
	"COALESCE(title_sentiment, '') AS title_sentiment",
	"COALESCE(domain_id, 0) AS domain_id",
}

// InsertArticles stores every row under its domain, creating missing domains.
func (s *ArticleStorage) InsertArticles(ctx context.Context, rows []model.ArticleRow) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO articles (
				source_name, author, title, description, url, url_to_image, published_at,
				content, category, article, title_sentiment, domain_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		for _, row := range rows {
			domainID, err := getOrCreateDomain(ctx, tx, row.Domain)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, query,
				row.SourceName, row.Author, row.Title, row.Description, row.URL, row.URLToImage,
				row.PublishedAt.UTC(), row.Content, row.Category, row.Body, row.TitleSentiment, domainID,
			)
			if err != nil {
				return fmt.Errorf("insert article %q: %w", row.URL, err)
			}
		}
		return nil
	})
}

func (s *ArticleStorage) ReadArticles(ctx context.Context) ([]model.Article, error) {
	return s.ReadArticlesBetween(ctx, time.Time{}, time.Time{})
}

// ReadArticlesBetween returns articles published in [from, to). A zero bound is open.
func (s *ArticleStorage) ReadArticlesBetween(ctx context.Context, from, to time.Time) ([]model.Article, error) {
	q := sq.Select(articleColumns...).From("articles").OrderBy("id")
	if !from.IsZero() {
		q = q.Where(sq.GtOrEq{"published_at": from.UTC()})
	}
	if !to.IsZero() {
		q = q.Where(sq.Lt{"published_at": to.UTC()})
	}
	if s.db.DriverName() == DriverPostgres {
		q = q.PlaceholderFormat(sq.Dollar)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build articles query: %w", err)
	}

	var articles []model.Article
	if err := s.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, fmt.Errorf("read articles: %w", err)
	}
	return articles, nil
}
