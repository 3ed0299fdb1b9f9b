package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/domain/repository"
)

// ClickHouseTradeStore persists trades and balance snapshots in
// ClickHouse.
type ClickHouseTradeStore struct {
	db            *sql.DB
	tradesTable   string
	balancesTable string
}

var _ repository.TradeStore = (*ClickHouseTradeStore)(nil)

// NewClickHouseTradeStore creates the ClickHouse-backed trade store.
func NewClickHouseTradeStore(db *sql.DB, tradesTable, balancesTable string) *ClickHouseTradeStore {
	return &ClickHouseTradeStore{db: db, tradesTable: tradesTable, balancesTable: balancesTable}
}

func (s *ClickHouseTradeStore) SaveTrade(ctx context.Context, t *models.Trade) error {
	if t == nil {
		return fmt.Errorf("trade is nil")
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (id, account_id, symbol, side, size, price, strategy, confidence, order_id, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.tradesTable,
	)
	_, err := s.db.ExecContext(ctx, q,
		t.ID,
		t.AccountID,
		t.Symbol,
		string(t.Side),
		t.Size,
		t.Price,
		t.Strategy,
		t.Confidence,
		t.OrderID,
		t.Status,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *ClickHouseTradeStore) SaveBalanceSnapshot(ctx context.Context, snap *models.BalanceSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (account_id, available, total, frozen, ts) VALUES (?, ?, ?, ?, ?)",
		s.balancesTable,
	)
	_, err := s.db.ExecContext(ctx, q,
		snap.AccountID,
		snap.Available,
		snap.Total,
		snap.Frozen,
		snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert balance snapshot: %w", err)
	}
	return nil
}

func (s *ClickHouseTradeStore) CountOpenTrades(ctx context.Context, accountID string) (int, error) {
	q := fmt.Sprintf("SELECT count() FROM %s WHERE account_id = ? AND status = 'open'", s.tradesTable)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open trades: %w", err)
	}
	return int(n), nil
}

func (s *ClickHouseTradeStore) QueryTrades(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Trade, error) {
	q := fmt.Sprintf(
		"SELECT id, account_id, symbol, side, size, price, strategy, confidence, order_id, status, created_at FROM %s WHERE created_at >= ? AND created_at <= ?",
		s.tradesTable,
	)
	args := []any{from, to}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		var t models.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Symbol, &side, &t.Size, &t.Price, &t.Strategy, &t.Confidence, &t.OrderID, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Side = models.Side(side)
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}
