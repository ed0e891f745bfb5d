package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/oraclevm/oracle-vm/internal/clients/client"
	"github.com/oraclevm/oracle-vm/internal/config"
)

const (
	krakenBaseURL  = "https://api.kraken.com"
	krakenEndpoint = "/0/public/OHLC"
	krakenPair     = "XXBTZUSD"
)

// KrakenClient reads the close of the most recent XBTUSD 1m candle since
// the previous full minute.
type KrakenClient struct {
	*baseClient
}

func NewKrakenClient(cfg *config.FeederConfig, opts ...Option) *KrakenClient {
	return &KrakenClient{baseClient: newBaseClient(Kraken, krakenBaseURL, cfg, opts...)}
}

func (c *KrakenClient) FetchPrice(ctx context.Context) (*Quote, error) {
	type empty struct{}
	type ohlcResponse struct {
		Error  []string                   `json:"error"`
		Result map[string]json.RawMessage `json:"result"`
	}

	return c.fetchWithRetry(ctx, func() (float64, error) {
		since, _ := previousMinute(c.now())
		opts := &client.HttpClientOptions{
			Path:         fmt.Sprintf("%s?pair=XBTUSD&interval=1&since=%d", krakenEndpoint, since.Unix()),
			TemplatePath: krakenEndpoint,
		}
		resp, err := client.SendRequest[empty, ohlcResponse](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return 0, err
		}
		if len(resp.Error) > 0 {
			return 0, fmt.Errorf("%w: kraken api error: %s", ErrInvalidResponse, strings.Join(resp.Error, ", "))
		}

		raw, ok := resp.Result[krakenPair]
		if !ok {
			return 0, fmt.Errorf("%w: missing %s data", ErrInvalidResponse, krakenPair)
		}
		// [time, open, high, low, close, vwap, volume, count]
		var rows [][]json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if len(rows) == 0 {
			return 0, fmt.Errorf("%w: no OHLC data", ErrInvalidResponse)
		}
		last := rows[len(rows)-1]
		if len(last) < 5 {
			return 0, fmt.Errorf("%w: OHLC row has %d fields", ErrInvalidResponse, len(last))
		}

		var closePrice string
		if err := json.Unmarshal(last[4], &closePrice); err != nil {
			return 0, fmt.Errorf("%w: close price: %v", ErrInvalidResponse, err)
		}
		price, err := strconv.ParseFloat(closePrice, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: close price %q: %v", ErrInvalidResponse, closePrice, err)
		}
		return price, nil
	})
}
