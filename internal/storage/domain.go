package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/newsInsight/internal/model"
)

type DomainStorage struct {
	db *sqlx.DB
}

func NewDomainStorage(db *sqlx.DB) *DomainStorage {
	return &DomainStorage{db: db}
}

// GetOrCreateDomain returns the id of the domain called name, inserting it
// with no location when it does not exist yet.
func (s *DomainStorage) GetOrCreateDomain(ctx context.Context, name string) (int64, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		id, err = getOrCreateDomain(ctx, tx, name)
		return err
	})
	return id, err
}

// InsertDomainLocations appends every row, repeated pairs included, and maps
// each location text to the id it was assigned. A repeated location keeps the last id.
func (s *DomainStorage) InsertDomainLocations(ctx context.Context, rows []model.LocationRow) (map[string]int64, error) {
	ids := make(map[string]int64, len(rows))

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`INSERT INTO domain_locations (location, country) VALUES (?, ?) RETURNING id`)
		for _, row := range rows {
			var id int64
			if err := tx.QueryRowxContext(ctx, query, row.Location, row.Country).Scan(&id); err != nil {
				return fmt.Errorf("insert location %q: %w", row.Location, err)
			}
			ids[row.Location] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// InsertDomains attaches each domain to the location matching its exact
// (location, country) pair. Rows without a matching location are skipped;
// the number of domains written is returned.
func (s *DomainStorage) InsertDomains(ctx context.Context, rows []model.DomainRow) (int, error) {
	written := 0

	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		written = 0
		lookup := tx.Rebind(`SELECT id FROM domain_locations WHERE location = ? AND country = ? ORDER BY id LIMIT 1`)
		attach := tx.Rebind(`UPDATE domains SET domain_locations_id = ? WHERE id = ?`)

		for _, row := range rows {
			var locationID int64
			err := tx.GetContext(ctx, &locationID, lookup, row.Location, row.Country)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("lookup location %q/%q: %w", row.Location, row.Country, err)
			}

			domainID, err := getOrCreateDomain(ctx, tx, row.Name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, attach, locationID, domainID); err != nil {
				return fmt.Errorf("attach location to domain %q: %w", row.Name, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

func (s *DomainStorage) ReadDomains(ctx context.Context) ([]model.Domain, error) {
	var domains []model.Domain
	err := s.db.SelectContext(ctx, &domains,
		`SELECT id, COALESCE(domain_name, '') AS domain_name, domain_locations_id FROM domains ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read domains: %w", err)
	}
	return domains, nil
}

func (s *DomainStorage) ReadDomainLocations(ctx context.Context) ([]model.DomainLocation, error) {
	var locations []model.DomainLocation
	err := s.db.SelectContext(ctx, &locations,
		`SELECT id, COALESCE(location, '') AS location, COALESCE(country, '') AS country FROM domain_locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read domain locations: %w", err)
	}
	return locations, nil
}

func getOrCreateDomain(ctx context.Context, tx sqlx.ExtContext, name string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, tx, &id,
		tx.Rebind(`SELECT id FROM domains WHERE domain_name = ? ORDER BY id LIMIT 1`), name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup domain %q: %w", name, err)
	}

	err = tx.QueryRowxContext(ctx,
		tx.Rebind(`INSERT INTO domains (domain_name, domain_locations_id) VALUES (?, NULL) RETURNING id`), name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert domain %q: %w", name, err)
	}

	return id, nil
}
