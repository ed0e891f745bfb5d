package exchange

import (
	"context"
	"fmt"
	"net/http"

	"github.com/oraclevm/oracle-vm/internal/clients/client"
	"github.com/oraclevm/oracle-vm/internal/config"
)

const (
	coinbaseBaseURL  = "https://api.exchange.coinbase.com"
	coinbaseEndpoint = "/products/BTC-USD/candles"
)

// CoinbaseClient reads the close of the previous full minute's BTC-USD
// candle.
type CoinbaseClient struct {
	*baseClient
}

func NewCoinbaseClient(cfg *config.FeederConfig, opts ...Option) *CoinbaseClient {
	return &CoinbaseClient{baseClient: newBaseClient(Coinbase, coinbaseBaseURL, cfg, opts...)}
}

func (c *CoinbaseClient) FetchPrice(ctx context.Context) (*Quote, error) {
	type empty struct{}
	// [time, low, high, open, close, volume]
	type candles [][]float64

	return c.fetchWithRetry(ctx, func() (float64, error) {
		start, end := previousMinute(c.now())
		opts := &client.HttpClientOptions{
			Path: fmt.Sprintf("%s?start=%d&end=%d&granularity=60",
				coinbaseEndpoint, start.Unix(), end.Unix()),
			TemplatePath: coinbaseEndpoint,
		}
		resp, err := client.SendRequest[empty, candles](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return 0, err
		}
		if len(*resp) == 0 {
			return 0, fmt.Errorf("%w: no candle data", ErrInvalidResponse)
		}
		candle := (*resp)[0]
		if len(candle) < 5 {
			return 0, fmt.Errorf("%w: candle has %d fields", ErrInvalidResponse, len(candle))
		}
		return candle[4], nil
	})
}
