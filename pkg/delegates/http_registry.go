package delegates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPRegistry reads delegates from the Safe transaction service API.
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Compile-time interface compliance check
var _ Registry = (*HTTPRegistry)(nil)

// NewHTTPRegistry creates a registry backed by the transaction service at
// baseURL (e.g. https://safe-transaction-mainnet.safe.global).
func NewHTTPRegistry(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPRegistry {
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPRegistry{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GetDelegates fetches all delegates for (chainID, safe), following the
// service's pagination until exhausted.
func (r *HTTPRegistry) GetDelegates(ctx context.Context, chainID int64, safe common.Address) (Page, error) {
	endpoint := fmt.Sprintf("%s/api/v1/chains/%d/delegates/?safe=%s",
		r.baseURL, chainID, url.QueryEscape(safe.Hex()))

	var page Page
	next := endpoint
	for next != "" {
		var batch pagedResponse
		if err := r.get(ctx, next, &batch); err != nil {
			return Page{}, err
		}
		page.Results = append(page.Results, batch.Results...)
		page.Count = batch.Count
		next = batch.Next
	}

	r.logger.Debug("delegates fetched",
		zap.Int64("chain_id", chainID),
		zap.String("safe", safe.Hex()),
		zap.Int("count", len(page.Results)),
	)
	return page, nil
}

type pagedResponse struct {
	Count   int        `json:"count"`
	Next    string     `json:"next"`
	Results []Delegate `json:"results"`
}

func (r *HTTPRegistry) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("delegates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("delegates: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delegates: registry returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("delegates: decode response: %w", err)
	}
	return nil
}
