package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/newsInsight/internal/model"
)

// openTestDB creates an in-memory SQLite database with the schema applied.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, DriverSQLite, ":memory:?_pragma=foreign_keys(1)&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateSchema(ctx, db, false))
	return db
}

func countRows(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, db.Rebind(query), args...))
	return n
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestCreateSchema_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, CreateSchema(context.Background(), db, false))
}

func TestCreateSchema_ResetDropsRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := NewDomainStorage(db).GetOrCreateDomain(ctx, "bbc.co.uk")
	require.NoError(t, err)

	require.NoError(t, CreateSchema(ctx, db, true))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM domains"))
}

func TestSchemaStatements_DriverSpecificID(t *testing.T) {
	pg := schemaStatements(DriverPostgres)
	lite := schemaStatements(DriverSQLite)

	require.Len(t, pg, 6)
	require.Len(t, lite, 6)
	assert.Contains(t, pg[0], "SERIAL PRIMARY KEY")
	assert.Contains(t, lite[0], "INTEGER PRIMARY KEY AUTOINCREMENT")
}

// --- domains ---

func TestGetOrCreateDomain_SameIDTwice(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewDomainStorage(db)

	first, err := s.GetOrCreateDomain(ctx, "reuters.com")
	require.NoError(t, err)
	second, err := s.GetOrCreateDomain(ctx, "reuters.com")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM domains WHERE domain_name = ?", "reuters.com"))

	other, err := s.GetOrCreateDomain(ctx, "apnews.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	domains, err := s.ReadDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.False(t, domains[0].LocationID.Valid)
}

func TestInsertDomainLocations_NeverDeduplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewDomainStorage(db)

	ids, err := s.InsertDomainLocations(ctx, []model.LocationRow{
		{Location: "London", Country: "United Kingdom"},
		{Location: "Paris", Country: "France"},
		{Location: "London", Country: "United Kingdom"},
	})
	require.NoError(t, err)

	assert.Len(t, ids, 2)
	assert.Equal(t, 3, countRows(t, db, "SELECT COUNT(*) FROM domain_locations"))

	locations, err := s.ReadDomainLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 3)
	// last write wins for the repeated key
	assert.Equal(t, locations[2].ID, ids["London"])
	assert.Equal(t, locations[1].ID, ids["Paris"])
}

func TestInsertDomains_SkipsUnmatchedLocations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewDomainStorage(db)

	ids, err := s.InsertDomainLocations(ctx, []model.LocationRow{
		{Location: "London", Country: "United Kingdom"},
	})
	require.NoError(t, err)

	written, err := s.InsertDomains(ctx, []model.DomainRow{
		{Name: "bbc.co.uk", Location: "London", Country: "United Kingdom"},
		{Name: "lemonde.fr", Location: "Paris", Country: "France"},
		{Name: "guardian.co.uk", Location: "London", Country: "France"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	domains, err := s.ReadDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "bbc.co.uk", domains[0].Name)
	assert.True(t, domains[0].LocationID.Valid)
	assert.Equal(t, ids["London"], domains[0].LocationID.Int64)
}

func TestInsertDomains_AttachesLocationToExistingDomain(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewDomainStorage(db)

	id, err := s.GetOrCreateDomain(ctx, "bbc.co.uk")
	require.NoError(t, err)

	_, err = s.InsertDomainLocations(ctx, []model.LocationRow{{Location: "London", Country: "United Kingdom"}})
	require.NoError(t, err)

	_, err = s.InsertDomains(ctx, []model.DomainRow{{Name: "bbc.co.uk", Location: "London", Country: "United Kingdom"}})
	require.NoError(t, err)

	domains, err := s.ReadDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, id, domains[0].ID)
	assert.True(t, domains[0].LocationID.Valid)
}

// --- traffic ---

func TestInsertTrafficData_CreatesDomain(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	domains := NewDomainStorage(db)
	traffic := NewTrafficStorage(db)

	existing, err := domains.GetOrCreateDomain(ctx, "google.com")
	require.NoError(t, err)

	err = traffic.InsertTrafficData(ctx, []model.TrafficRow{
		{Domain: "google.com", TrafficRecord: model.TrafficRecord{GlobalRank: 1, TldRank: 1, TLD: "com", RefSubNets: 100, RefIPs: 200}},
		{Domain: "bbc.co.uk", TrafficRecord: model.TrafficRecord{GlobalRank: 90, TldRank: 3, TLD: "uk", PrevGlobalRank: 91}},
	})
	require.NoError(t, err)

	records, err := traffic.ReadTrafficData(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, existing, records[0].DomainID)
	assert.Equal(t, int64(100), records[0].RefSubNets)
	assert.Equal(t, "uk", records[1].TLD)
	assert.Equal(t, int64(91), records[1].PrevGlobalRank)
	assert.NotEqual(t, existing, records[1].DomainID)
	assert.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM domains"))
}

// --- articles ---

func sampleArticle(domain, source string, published time.Time) model.ArticleRow {
	return model.ArticleRow{
		Domain: domain,
		Article: model.Article{
			SourceName:     source,
			Author:         "Jane Doe",
			Title:          "Markets rally in " + source,
			URL:            "https://" + domain + "/" + published.Format("20060102"),
			PublishedAt:    published,
			Content:        "Stocks rose in France and Germany.",
			Category:       "business",
			TitleSentiment: model.SentimentPositive,
		},
	}
}

func TestInsertArticles_Roundtrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewArticleStorage(db)

	published := time.Date(2023, 10, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, s.InsertArticles(ctx, []model.ArticleRow{
		sampleArticle("bbc.co.uk", "BBC News", published),
		sampleArticle("bbc.co.uk", "BBC News", published.Add(24*time.Hour)),
	}))

	articles, err := s.ReadArticles(ctx)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	got := articles[0]
	assert.Equal(t, "BBC News", got.SourceName)
	assert.Equal(t, "Jane Doe", got.Author)
	assert.Equal(t, model.SentimentPositive, got.TitleSentiment)
	assert.True(t, published.Equal(got.PublishedAt), "published_at %v", got.PublishedAt)
	assert.Equal(t, articles[0].DomainID, articles[1].DomainID)
	assert.Empty(t, got.Description)

	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM domains"))
}

func TestReadArticlesBetween(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	s := NewArticleStorage(db)

	day := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertArticles(ctx, []model.ArticleRow{
		sampleArticle("a.com", "A", day.Add(2*time.Hour)),
		sampleArticle("a.com", "A", day.Add(26*time.Hour)),
		sampleArticle("b.com", "B", day.Add(50*time.Hour)),
	}))

	got, err := s.ReadArticlesBetween(ctx, day.Add(24*time.Hour), day.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, day.Add(26*time.Hour).Equal(got[0].PublishedAt))

	got, err = s.ReadArticlesBetween(ctx, day.Add(24*time.Hour), time.Time{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ReadArticlesBetween(ctx, time.Time{}, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInsertArticles_RollsBackOnCancel(t *testing.T) {
	db := openTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewArticleStorage(db).InsertArticles(ctx, []model.ArticleRow{
		sampleArticle("a.com", "A", time.Now()),
	})
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM articles"))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM domains"))
}

func TestStorage_SharesPool(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	st := New(db)

	require.NoError(t, st.InsertArticles(ctx, []model.ArticleRow{
		sampleArticle("bbc.co.uk", "BBC News", time.Date(2023, 10, 1, 9, 0, 0, 0, time.UTC)),
	}))

	domains, err := st.ReadDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "bbc.co.uk", domains[0].Name)
}
