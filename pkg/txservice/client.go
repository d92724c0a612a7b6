// Package txservice is the read-mostly client for the Safe transaction
// service, the upstream source of Safe snapshots, recorded transactions and
// module lookups.
package txservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/jwkyoung/safe-tx-gateway/pkg/safetx"
)

const defaultTimeout = 10 * time.Second

// ErrNotFound is returned when the service has no record for the lookup.
var ErrNotFound = errors.New("txservice: not found")

// UpstreamError is a non-2xx answer from the transaction service.
type UpstreamError struct {
	StatusCode int
	Endpoint   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("txservice: %s returned status %d", e.Endpoint, e.StatusCode)
}

// Client talks to the transaction service rooted at baseURL.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a transaction service client.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GetSafe fetches the current configuration snapshot of a Safe.
func (c *Client) GetSafe(ctx context.Context, chainID int64, address common.Address) (*safetx.Safe, error) {
	endpoint := fmt.Sprintf("%s/api/v1/chains/%d/safes/%s/", c.baseURL, chainID, address.Hex())

	var safe safetx.Safe
	if err := c.getJSON(ctx, endpoint, &safe); err != nil {
		return nil, err
	}
	safe.ChainID = chainID
	return &safe, nil
}

// GetMultisigTransaction fetches a recorded transaction by its safeTxHash.
func (c *Client) GetMultisigTransaction(ctx context.Context, chainID int64, safeTxHash common.Hash) (*safetx.MultisigTransaction, error) {
	endpoint := fmt.Sprintf("%s/api/v1/chains/%d/multisig-transactions/%s/", c.baseURL, chainID, safeTxHash.Hex())

	var tx safetx.MultisigTransaction
	if err := c.getJSON(ctx, endpoint, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetSafesByModule lists the Safes that have the given module enabled.
func (c *Client) GetSafesByModule(ctx context.Context, chainID int64, module common.Address) ([]common.Address, error) {
	endpoint := fmt.Sprintf("%s/api/v1/chains/%d/modules/%s/safes/", c.baseURL, chainID, module.Hex())

	var body struct {
		Safes []common.Address `json:"safes"`
	}
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return body.Safes, nil
}

// ProposeTransaction forwards an already-verified proposal to the service.
func (c *Client) ProposeTransaction(ctx context.Context, chainID int64, safe common.Address, proposal *safetx.Proposal) error {
	endpoint := fmt.Sprintf("%s/api/v1/chains/%d/safes/%s/multisig-transactions/", c.baseURL, chainID, safe.Hex())

	payload, err := json.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("txservice: encode proposal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("txservice: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("txservice: request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	c.logger.Info("proposal forwarded to transaction service",
		zap.Int64("chain_id", chainID),
		zap.String("safe", safe.Hex()),
		zap.String("safe_tx_hash", proposal.SafeTxHash.Hex()),
	)
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("txservice: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("txservice: request failed: %w", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return &UpstreamError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("txservice: decode response: %w", err)
	}
	return nil
}

// drainAndClose lets the transport reuse the connection.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
