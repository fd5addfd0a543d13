// Package postgres persists arbitrage opportunity history.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ksaito/crossarb/business/arbitrage/domain"
)

// IDResolver maps venue codes and pair symbols to their persisted ids. The
// market context's tick store satisfies this after its reference sync.
type IDResolver interface {
	VenueID(code string) (int32, bool)
	PairID(symbol string) (int32, bool)
}

// OpportunityStore writes opportunity rows to PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
	ids  IDResolver
}

// NewOpportunityStore creates an OpportunityStore.
func NewOpportunityStore(pool *pgxpool.Pool, ids IDResolver) *OpportunityStore {
	return &OpportunityStore{pool: pool, ids: ids}
}

// InsertOpportunity appends one opportunity row.
func (s *OpportunityStore) InsertOpportunity(ctx context.Context, opp *domain.Opportunity) error {
	buyID, ok := s.ids.VenueID(opp.BuyVenue)
	if !ok {
		return fmt.Errorf("postgres: unknown buy venue %s", opp.BuyVenue)
	}
	sellID, ok := s.ids.VenueID(opp.SellVenue)
	if !ok {
		return fmt.Errorf("postgres: unknown sell venue %s", opp.SellVenue)
	}
	pairID, ok := s.ids.PairID(opp.Pair)
	if !ok {
		return fmt.Errorf("postgres: unknown pair %s", opp.Pair)
	}

	detailsJSON, err := executionDetailsJSON(opp)
	if err != nil {
		return fmt.Errorf("postgres: marshal execution details: %w", err)
	}

	var skipReason *string
	if opp.SkipReason != "" {
		skipReason = &opp.SkipReason
	}

	const query = `
		INSERT INTO arbitrage_opportunities (
			id, timestamp, buy_exchange_id, sell_exchange_id, pair_id,
			buy_price, sell_price, price_diff_pct, estimated_profit_pct,
			max_profitable_volume, buy_fees, sell_fees, transfer_fee,
			total_fees_pct, status, skip_reason, execution_details
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17
		)`

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.Timestamp, buyID, sellID, pairID,
		opp.BuyPrice, opp.SellPrice, opp.PriceDiffPct, opp.EstimatedProfitPct,
		opp.MaxProfitableVolume, opp.Fees.BuyFeePct, opp.Fees.SellFeePct, opp.Fees.TransferFeePct,
		opp.Fees.TotalPct, string(opp.Status), skipReason, detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// executionDetailsJSON renders the details column with the strategy stamped
// in. The opportunity is shared with the alerting path and is read-only once
// emitted, so the stamp goes on a copy.
func executionDetailsJSON(opp *domain.Opportunity) ([]byte, error) {
	details := make(map[string]any, len(opp.ExecutionDetails)+1)
	maps.Copy(details, opp.ExecutionDetails)
	details["strategy"] = string(opp.Strategy)
	return json.Marshal(details)
}

// MarkExecuted transitions a detected opportunity to executed and stores the
// execution details.
func (s *OpportunityStore) MarkExecuted(ctx context.Context, id uuid.UUID, details map[string]any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("postgres: marshal execution details: %w", err)
	}

	const query = `
		UPDATE arbitrage_opportunities SET
			status            = 'executed',
			execution_details = execution_details || $2
		WHERE id = $1 AND status = 'detected'`

	tag, err := s.pool.Exec(ctx, query, id, detailsJSON)
	if err != nil {
		return fmt.Errorf("postgres: mark executed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: opportunity %s not found or not detected", id)
	}
	return nil
}

// ExpireOlderThan transitions stale detected rows to expired and returns the
// number of rows affected.
func (s *OpportunityStore) ExpireOlderThan(ctx context.Context, before time.Time) (int64, error) {
	const query = `
		UPDATE arbitrage_opportunities SET
			status = 'expired'
		WHERE status = 'detected' AND timestamp < $1`

	tag, err := s.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: expire opportunities: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountByStatus returns row counts grouped by status, for operational
// reporting.
func (s *OpportunityStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	const query = `SELECT status, COUNT(*) FROM arbitrage_opportunities GROUP BY status`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
