package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/0x0BSoD/newsInsight/internal/model"
)

type TrafficStorage struct {
	db *sqlx.DB
}

func NewTrafficStorage(db *sqlx.DB) *TrafficStorage {
	return &TrafficStorage{db: db}
}

func (s *TrafficStorage) InsertTrafficData(ctx context.Context, rows []model.TrafficRow) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO traffic_data (
				global_rank, tld_rank, tld, ref_subnets, ref_ips, idn_domain, idn_tld,
				prev_global_rank, prev_tld_rank, prev_ref_subnets, prev_ref_ips, domain_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

		for _, row := range rows {
			domainID, err := getOrCreateDomain(ctx, tx, row.Domain)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, query,
				row.GlobalRank, row.TldRank, row.TLD, row.RefSubNets, row.RefIPs,
				row.IDNDomain, row.IDNTLD, row.PrevGlobalRank, row.PrevTldRank,
				row.PrevRefSubNets, row.PrevRefIPs, domainID,
			)
			if err != nil {
				return fmt.Errorf("insert traffic for %q: %w", row.Domain, err)
			}
		}
		return nil
	})
}

func (s *TrafficStorage) ReadTrafficData(ctx context.Context) ([]model.TrafficRecord, error) {
	var records []model.TrafficRecord
	err := s.db.SelectContext(ctx, &records, `
		SELECT id,
			COALESCE(global_rank, 0) AS global_rank,
			COALESCE(tld_rank, 0) AS tld_rank,
			COALESCE(tld, '') AS tld,
			COALESCE(ref_subnets, 0) AS ref_subnets,
			COALESCE(ref_ips, 0) AS ref_ips,
			COALESCE(idn_domain, '') AS idn_domain,
			COALESCE(idn_tld, '') AS idn_tld,
			COALESCE(prev_global_rank, 0) AS prev_global_rank,
			COALESCE(prev_tld_rank, 0) AS prev_tld_rank,
			COALESCE(prev_ref_subnets, 0) AS prev_ref_subnets,
			COALESCE(prev_ref_ips, 0) AS prev_ref_ips,
			COALESCE(domain_id, 0) AS domain_id
		FROM traffic_data ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("read traffic data: %w", err)
	}
	return records, nil
}
