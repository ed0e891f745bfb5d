package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/oraclevm/oracle-vm/internal/clients/client"
	"github.com/oraclevm/oracle-vm/internal/config"
)

const (
	binanceBaseURL  = "https://api.binance.com"
	binanceEndpoint = "/api/v3/klines"
)

// BinanceClient reads the close of the latest 1m BTCUSDT kline.
type BinanceClient struct {
	*baseClient
}

func NewBinanceClient(cfg *config.FeederConfig, opts ...Option) *BinanceClient {
	return &BinanceClient{baseClient: newBaseClient(Binance, binanceBaseURL, cfg, opts...)}
}

func (c *BinanceClient) FetchPrice(ctx context.Context) (*Quote, error) {
	type empty struct{}
	// [open time, open, high, low, close, volume, close time, ...]
	type klines [][]json.RawMessage

	return c.fetchWithRetry(ctx, func() (float64, error) {
		opts := &client.HttpClientOptions{
			Path:         binanceEndpoint + "?symbol=BTCUSDT&interval=1m&limit=1",
			TemplatePath: binanceEndpoint,
		}
		resp, err := client.SendRequest[empty, klines](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return 0, err
		}
		if len(*resp) == 0 {
			return 0, fmt.Errorf("%w: no kline data", ErrInvalidResponse)
		}
		kline := (*resp)[0]
		if len(kline) < 5 {
			return 0, fmt.Errorf("%w: kline has %d fields", ErrInvalidResponse, len(kline))
		}

		var closePrice string
		if err := json.Unmarshal(kline[4], &closePrice); err != nil {
			return 0, fmt.Errorf("%w: close price: %v", ErrInvalidResponse, err)
		}
		price, err := strconv.ParseFloat(closePrice, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: close price %q: %v", ErrInvalidResponse, closePrice, err)
		}
		return price, nil
	})
}
