package types

// Wire types shared by the HTTP api and its clients. Ids, hashes and
// binary blobs are hex encoded.

type SubmitPriceRequest struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Source    string  `json:"source"`
	NodeID    string  `json:"node_id"`
	// PubKey and Signature are optional, but must be given together.
	PubKey    string `json:"pubkey,omitempty"`
	Signature string `json:"signature,omitempty"`
}

type SubmitPriceResponse struct {
	Success         bool     `json:"success"`
	Message         string   `json:"message"`
	AggregatedPrice *float64 `json:"aggregated_price,omitempty"`
	Timestamp       int64    `json:"timestamp"`
}

type HealthResponse struct {
	Healthy         bool   `json:"healthy"`
	Timestamp       int64  `json:"timestamp"`
	ActiveNodeCount int    `json:"active_node_count"`
	Version         string `json:"version"`
}

type PriceDataPoint struct {
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Source    string  `json:"source"`
	NodeID    string  `json:"node_id"`
}

type AggregatedPriceResponse struct {
	Success         bool             `json:"success"`
	AggregatedPrice float64          `json:"aggregated_price"`
	DataPoints      int              `json:"data_points"`
	LastUpdate      int64            `json:"last_update"`
	RecentPrices    []PriceDataPoint `json:"recent_prices"`
}

// Settlement is either a vault liquidation or an option expiry, selected
// by Kind.
type Settlement struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Price uint64 `json:"price"`
	Time  uint64 `json:"time"`
}

type ProveSettlementRequest struct {
	Settlement  Settlement `json:"settlement"`
	PriceData   string     `json:"price_data"`
	MarketState string     `json:"market_state"`
}

type SettlementProofResponse struct {
	Kind              string `json:"kind"`
	SettlementID      string `json:"settlement_id"`
	TraceHash         string `json:"trace_hash"`
	ProgramCommitment string `json:"program_commitment"`
	InputHash         string `json:"input_hash"`
	OutputHash        string `json:"output_hash"`
	Witness           string `json:"witness"`
}

type CreateVaultRequest struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	Collateral uint64 `json:"collateral"`
	Debt       uint64 `json:"debt"`
}

type CreateOptionRequest struct {
	ID          string `json:"id"`
	Writer      string `json:"writer"`
	OptionType  string `json:"option_type"`
	StrikePrice uint64 `json:"strike_price"`
	ExpiryTime  uint64 `json:"expiry_time"`
	Collateral  uint64 `json:"collateral"`
	Premium     uint64 `json:"premium"`
}

type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Vault struct {
	ID              string `json:"id"`
	Owner           string `json:"owner"`
	Collateral      uint64 `json:"collateral"`
	Debt            uint64 `json:"debt"`
	CollateralRatio uint64 `json:"collateral_ratio"`
	CreatedAt       uint64 `json:"created_at"`
}

type Option struct {
	ID          string `json:"id"`
	Writer      string `json:"writer"`
	Holder      string `json:"holder,omitempty"`
	OptionType  string `json:"option_type"`
	StrikePrice uint64 `json:"strike_price"`
	ExpiryTime  uint64 `json:"expiry_time"`
	Collateral  uint64 `json:"collateral"`
	Premium     uint64 `json:"premium"`
}

type PriceRoot struct {
	Height uint64 `json:"height"`
	Root   string `json:"root"`
}

type VMStateResponse struct {
	BlockHeight uint64       `json:"block_height"`
	PriceRoots  []PriceRoot  `json:"price_roots"`
	Vaults      []Vault      `json:"vaults"`
	Options     []Option     `json:"options"`
	Pending     []Settlement `json:"pending"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
