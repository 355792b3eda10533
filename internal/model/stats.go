package model

import "time"

// StatsSource tags where a stats value came from.
type StatsSource string

const (
	SourceBackend StatsSource = "backend"
	SourceOnchain StatsSource = "onchain"
	SourceCached  StatsSource = "cached"
)

// Breakdown is the indexer's per-type transaction counters.
type Breakdown struct {
	Swaps     int64 `json:"swaps"`
	Supplies  int64 `json:"supplies"`
	Withdraws int64 `json:"withdraws"`
	Borrows   int64 `json:"borrows"`
	Repays    int64 `json:"repays"`
	Claims    int64 `json:"claims"`
}

// ProtocolStats is the merged dashboard view: indexer counters plus
// live on-chain TVL.
type ProtocolStats struct {
	TVLUSD       float64     `json:"tvl_usd"`
	VolumeUSD    float64     `json:"volume_usd"`
	Transactions int64       `json:"transactions"`
	Breakdown    *Breakdown  `json:"breakdown,omitempty"`
	Source       StatsSource `json:"source"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TxRecord is one indexed transaction from the history API.
type TxRecord struct {
	Hash      string    `json:"hash"`
	Type      string    `json:"type"`
	Wallet    string    `json:"wallet"`
	Token     string    `json:"token,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	AmountUSD float64   `json:"amount_usd,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TxPage is a paginated slice of transaction history.
type TxPage struct {
	Transactions []TxRecord  `json:"transactions"`
	Total        int64       `json:"total"`
	Limit        int         `json:"limit"`
	Offset       int         `json:"offset"`
	Source       StatsSource `json:"source"`
}
