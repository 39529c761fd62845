// Package marketdata fetches daily OHLCV bars and real-time quotes over the
// provider's HTTP API. The provider owns the data; this package only parses
// it into model types.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stock-insight/internal/infrastructure"
	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

type quoteResponse struct {
	Data struct {
		Code  string `json:"code"`
		Name  string `json:"name"`
		Price string `json:"price"`
	} `json:"data"`
}

// DailyBars returns forward-adjusted daily bars for symbol within
// [start, end], oldest first. An empty slice with a nil error means the
// provider has no data for the range; callers treat that as "no data", not
// as zeros.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/api/qt/stock/kline/get?secid=%s&klt=101&fqt=1&beg=%s&end=%s",
		c.baseURL, secID(symbol), start.Format("20060102"), end.Format("20060102"))

	began := time.Now()
	var resp klineResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("fetch daily bars for %s: %w", symbol, err)
	}
	infrastructure.BarFetchLatency.WithLabelValues("remote").Observe(time.Since(began).Seconds())

	bars := make([]model.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		bar, err := parseKline(symbol, line)
		if err != nil {
			return nil, fmt.Errorf("parse kline for %s: %w", symbol, err)
		}
		bars = append(bars, bar)
	}

	c.logger.Debug("fetched daily bars",
		zap.String("symbol", symbol),
		zap.Int("count", len(bars)),
	)
	return bars, nil
}

// Quote returns the latest trade price for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	u := fmt.Sprintf("%s/api/qt/stock/get?secid=%s", c.baseURL, secID(symbol))

	var resp quoteResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	if resp.Data.Price == "" {
		return model.Quote{}, fmt.Errorf("no quote available for %s", symbol)
	}

	price, err := decimal.NewFromString(resp.Data.Price)
	if err != nil {
		return model.Quote{}, fmt.Errorf("parse quote price for %s: %w", symbol, err)
	}
	return model.Quote{Symbol: symbol, Price: price, Time: time.Now()}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseKline splits one provider kline entry:
// "date,open,close,high,low,volume[,...]".
func parseKline(symbol, line string) (model.Bar, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return model.Bar{}, fmt.Errorf("malformed kline entry %q", line)
	}

	ts, err := time.Parse(dateLayout, fields[0])
	if err != nil {
		return model.Bar{}, fmt.Errorf("bad date %q: %w", fields[0], err)
	}

	prices := make([]decimal.Decimal, 4)
	for i, raw := range fields[1:5] {
		prices[i], err = decimal.NewFromString(raw)
		if err != nil {
			return model.Bar{}, fmt.Errorf("bad price %q: %w", raw, err)
		}
	}

	volume, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("bad volume %q: %w", fields[5], err)
	}

	return model.Bar{
		Symbol:    symbol,
		Open:      prices[0],
		Close:     prices[1],
		High:      prices[2],
		Low:       prices[3],
		Volume:    volume,
		Timestamp: ts,
	}, nil
}

// secID maps a bare A-share code to the provider's market-prefixed id:
// Shanghai codes (6xx) get "1.", everything else "0.".
func secID(symbol string) string {
	if strings.HasPrefix(symbol, "6") {
		return "1." + symbol
	}
	return "0." + symbol
}
