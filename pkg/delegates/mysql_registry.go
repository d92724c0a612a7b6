package delegates

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// MySQLRegistry reads delegates from a local table for self-hosted
// deployments that do not proxy the public transaction service.
//
// Expected schema:
//
//	CREATE TABLE delegates (
//	    chain_id  BIGINT       NOT NULL,
//	    safe      CHAR(42)     NOT NULL,
//	    delegate  CHAR(42)     NOT NULL,
//	    delegator CHAR(42)     NOT NULL,
//	    label     VARCHAR(100) NOT NULL DEFAULT '',
//	    PRIMARY KEY (chain_id, safe, delegate)
//	);
type MySQLRegistry struct {
	db     *sql.DB
	logger *zap.Logger
}

// Compile-time interface compliance check
var _ Registry = (*MySQLRegistry)(nil)

// NewMySQLRegistry creates a registry backed by a local MySQL table.
func NewMySQLRegistry(db *sql.DB, logger *zap.Logger) *MySQLRegistry {
	return &MySQLRegistry{db: db, logger: logger}
}

// GetDelegates returns all delegates stored for (chainID, safe).
func (r *MySQLRegistry) GetDelegates(ctx context.Context, chainID int64, safe common.Address) (Page, error) {
	const query = `
		SELECT safe, delegate, delegator, label
		FROM delegates
		WHERE chain_id = ? AND safe = ?
		ORDER BY delegate`

	rows, err := r.db.QueryContext(ctx, query, chainID, safe.Hex())
	if err != nil {
		return Page{}, fmt.Errorf("delegates: query failed: %w", err)
	}
	defer rows.Close()

	var page Page
	for rows.Next() {
		var safeHex, delegateHex, delegatorHex, label string
		if err := rows.Scan(&safeHex, &delegateHex, &delegatorHex, &label); err != nil {
			return Page{}, fmt.Errorf("delegates: scan row: %w", err)
		}
		page.Results = append(page.Results, Delegate{
			Safe:      common.HexToAddress(safeHex),
			Delegate:  common.HexToAddress(delegateHex),
			Delegator: common.HexToAddress(delegatorHex),
			Label:     label,
		})
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("delegates: iterate rows: %w", err)
	}

	page.Count = len(page.Results)
	r.logger.Debug("delegates loaded from database",
		zap.Int64("chain_id", chainID),
		zap.String("safe", safe.Hex()),
		zap.Int("count", page.Count),
	)
	return page, nil
}
