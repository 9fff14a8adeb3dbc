package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS domain_locations (
  id {{id}},
  location VARCHAR,
  country VARCHAR
);
CREATE TABLE IF NOT EXISTS domains (
  id {{id}},
  domain_name VARCHAR,
  domain_locations_id INTEGER REFERENCES domain_locations (id)
);
CREATE TABLE IF NOT EXISTS traffic_data (
  id {{id}},
  global_rank INTEGER,
  tld_rank INTEGER,
  tld VARCHAR,
  ref_subnets INTEGER,
  ref_ips INTEGER,
  idn_domain VARCHAR,
  idn_tld VARCHAR,
  prev_global_rank INTEGER,
  prev_tld_rank INTEGER,
  prev_ref_subnets INTEGER,
  prev_ref_ips INTEGER,
  domain_id INTEGER REFERENCES domains (id)
);
CREATE TABLE IF NOT EXISTS articles (
  id {{id}},
  source_name VARCHAR,
  author VARCHAR,
  title VARCHAR,
  description VARCHAR,
  url VARCHAR,
  url_to_image VARCHAR,
  published_at TIMESTAMP,
  content VARCHAR,
  category VARCHAR,
  article VARCHAR,
  title_sentiment VARCHAR,
  domain_id INTEGER REFERENCES domains (id)
);
CREATE INDEX IF NOT EXISTS domains_domain_name_idx ON domains (domain_name);
CREATE INDEX IF NOT EXISTS articles_published_at_idx ON articles (published_at)
`

// dropOrder lists tables children first so foreign keys never block a drop.
var dropOrder = []string{"articles", "traffic_data", "domains", "domain_locations"}

func schemaStatements(driver string) []string {
	id := "SERIAL PRIMARY KEY"
	if driver == DriverSQLite {
		id = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	var stmts []string
	for _, s := range strings.Split(strings.ReplaceAll(schemaTemplate, "{{id}}", id), ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// CreateSchema creates the four tables. With reset, existing tables and their rows are dropped first.
func CreateSchema(ctx context.Context, db *sqlx.DB, reset bool) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		if reset {
			for _, table := range dropOrder {
				stmt := "DROP TABLE IF EXISTS " + table
				if db.DriverName() == DriverPostgres {
					stmt += " CASCADE"
				}
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("drop %s: %w", table, err)
				}
			}
		}

		for _, stmt := range schemaStatements(db.DriverName()) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute query %s: %w", stmt, err)
			}
		}
		return nil
	})
}
