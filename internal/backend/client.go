// Package backend is the HTTP client for the indexer backend: protocol
// counters, the per-type breakdown, transaction history, and health.
// The backend is an optional dependency; callers degrade to on-chain or
// cached data when it is unreachable.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"flowonarc/internal/model"
)

const defaultTimeout = 10 * time.Second

// Client talks to the indexer backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// Stats is the backend's aggregate counter response.
type Stats struct {
	TotalTransactions int64
	TotalVolumeUSD    float64
	Breakdown         model.Breakdown
	LastUpdated       time.Time
}

type statsDTO struct {
	TotalTransactions int64   `json:"totalTransactions"`
	TotalVolume       float64 `json:"totalVolume"`
	Swaps             int64   `json:"swaps"`
	Supplies          int64   `json:"supplies"`
	Withdraws         int64   `json:"withdraws"`
	Borrows           int64   `json:"borrows"`
	Repays            int64   `json:"repays"`
	Claims            int64   `json:"claims"`
	LastUpdated       string  `json:"lastUpdated"`
}

// Stats fetches the protocol counters.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var dto statsDTO
	if err := c.getJSON(ctx, "/api/stats", nil, &dto); err != nil {
		return Stats{}, err
	}

	out := Stats{
		TotalTransactions: dto.TotalTransactions,
		TotalVolumeUSD:    dto.TotalVolume,
		Breakdown: model.Breakdown{
			Swaps:     dto.Swaps,
			Supplies:  dto.Supplies,
			Withdraws: dto.Withdraws,
			Borrows:   dto.Borrows,
			Repays:    dto.Repays,
			Claims:    dto.Claims,
		},
	}
	if dto.LastUpdated != "" {
		if ts, err := time.Parse(time.RFC3339, dto.LastUpdated); err == nil {
			out.LastUpdated = ts
		}
	}
	return out, nil
}

// BreakdownRow is one entry of the per-type breakdown endpoint.
type BreakdownRow struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// Breakdown fetches the per-type transaction breakdown.
func (c *Client) Breakdown(ctx context.Context) ([]BreakdownRow, error) {
	var dto struct {
		Breakdown []BreakdownRow `json:"breakdown"`
	}
	if err := c.getJSON(ctx, "/api/stats/breakdown", nil, &dto); err != nil {
		return nil, err
	}
	return dto.Breakdown, nil
}

type txDTO struct {
	Hash      string  `json:"tx_hash"`
	Type      string  `json:"tx_type"`
	Wallet    string  `json:"wallet_address"`
	Token     string  `json:"token_symbol"`
	Amount    string  `json:"amount"`
	AmountUSD float64 `json:"amount_usd"`
	Timestamp string  `json:"timestamp"`
}

func (d txDTO) record() model.TxRecord {
	rec := model.TxRecord{
		Hash:      d.Hash,
		Type:      d.Type,
		Wallet:    d.Wallet,
		Token:     d.Token,
		Amount:    d.Amount,
		AmountUSD: d.AmountUSD,
	}
	if ts, err := time.Parse(time.RFC3339, d.Timestamp); err == nil {
		rec.Timestamp = ts
	}
	return rec
}

// Transactions fetches a page of protocol-wide history. An empty
// txType returns all types.
func (c *Client) Transactions(ctx context.Context, limit, offset int, txType string) (model.TxPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	if txType != "" {
		query.Set("type", txType)
	}

	var dto struct {
		Transactions []txDTO `json:"transactions"`
		Total        int64   `json:"total"`
		Limit        int     `json:"limit"`
		Offset       int     `json:"offset"`
	}
	if err := c.getJSON(ctx, "/api/transactions", query, &dto); err != nil {
		return model.TxPage{}, err
	}

	page := model.TxPage{
		Transactions: make([]model.TxRecord, 0, len(dto.Transactions)),
		Total:        dto.Total,
		Limit:        dto.Limit,
		Offset:       dto.Offset,
		Source:       model.SourceBackend,
	}
	for _, tx := range dto.Transactions {
		page.Transactions = append(page.Transactions, tx.record())
	}
	return page, nil
}

// WalletTransactions fetches one wallet's recent history.
func (c *Client) WalletTransactions(ctx context.Context, wallet string, limit int) ([]model.TxRecord, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var dto struct {
		Transactions []txDTO `json:"transactions"`
	}
	if err := c.getJSON(ctx, "/api/transactions/wallet/"+url.PathEscape(wallet), query, &dto); err != nil {
		return nil, err
	}

	records := make([]model.TxRecord, 0, len(dto.Transactions))
	for _, tx := range dto.Transactions {
		records = append(records, tx.record())
	}
	return records, nil
}

// Health is the backend's self-reported state.
type Health struct {
	Healthy  bool
	Database string
	Indexer  string
}

// Health probes the backend. A reachable backend reporting anything
// but "healthy" counts as unhealthy, not as an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var dto struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Indexer  string `json:"indexer"`
	}
	if err := c.getJSON(ctx, "/api/health", nil, &dto); err != nil {
		return Health{}, err
	}
	return Health{
		Healthy:  dto.Status == "healthy",
		Database: dto.Database,
		Indexer:  dto.Indexer,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrNetwork, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s responded %d", model.ErrNetwork, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
