// Package marketdata fetches the per-symbol market snapshot the analysts
// consume, with an optional Redis read-through cache.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/irfndi/tradecouncil/internal/config"
)

// Provider resolves the market data mapping for one symbol. A mapping
// carrying an "error" key marks the symbol as unavailable; the workflow
// treats it as invalid data.
type Provider interface {
	Fetch(ctx context.Context, symbol string) (map[string]interface{}, error)
	Close() error
}

// OnlineProvider pulls quote snapshots from an HTTP quote endpoint.
type OnlineProvider struct {
	http    *resty.Client
	baseURL string
	logger  *zap.Logger
}

// NewOnlineProvider builds the HTTP-backed provider.
func NewOnlineProvider(baseURL string, timeout time.Duration, logger *zap.Logger) *OnlineProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &OnlineProvider{http: client, baseURL: baseURL, logger: logger}
}

// Fetch retrieves the symbol's quote snapshot. Upstream "not found"
// answers are returned as a mapping with an "error" key rather than a
// transport failure.
func (p *OnlineProvider) Fetch(ctx context.Context, symbol string) (map[string]interface{}, error) {
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		Get(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch market data for %s: %w", symbol, err)
	}

	if resp.StatusCode() == 404 {
		return map[string]interface{}{"error": "not found"}, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch market data for %s: status %d", symbol, resp.StatusCode())
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("decode market data for %s: %w", symbol, err)
	}
	p.logger.Debug("market data fetched", zap.String("symbol", symbol), zap.Int("fields", len(data)))
	return data, nil
}

// Close releases the provider's transport.
func (p *OnlineProvider) Close() error { return nil }

// CachedProvider is a Redis read-through decorator over another provider.
// Error-marked mappings are never cached.
type CachedProvider struct {
	inner  Provider
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps a provider with a Redis cache.
func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// Fetch serves from cache when possible. Cache failures degrade to the
// inner provider rather than failing the fetch.
func (c *CachedProvider) Fetch(ctx context.Context, symbol string) (map[string]interface{}, error) {
	key := cacheKey(symbol)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err == nil {
			c.logger.Debug("market data cache hit", zap.String("symbol", symbol))
			return data, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("market data cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}

	data, err := c.inner.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if _, invalid := data["error"]; !invalid {
		if encoded, err := json.Marshal(data); err == nil {
			if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
				c.logger.Warn("market data cache write failed", zap.String("symbol", symbol), zap.Error(err))
			}
		}
	}
	return data, nil
}

// Close releases the cache connection and the inner provider.
func (c *CachedProvider) Close() error {
	if err := c.rdb.Close(); err != nil {
		return err
	}
	return c.inner.Close()
}

func cacheKey(symbol string) string {
	return "marketdata:" + symbol
}

// NewFromConfig builds the provider stack the configuration asks for:
// the online provider, optionally wrapped in the Redis cache when
// data.cache_enabled is set.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	if cfg.Data.QuoteBaseURL == "" {
		return nil, fmt.Errorf("data.quote_base_url is required for the %s provider", cfg.Data.MarketDataProvider)
	}

	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var provider Provider = NewOnlineProvider(cfg.Data.QuoteBaseURL, timeout, logger)

	if cfg.Data.CacheEnabled || cfg.Data.MarketDataProvider == "cached" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Data.RedisAddr})
		ttl := time.Duration(cfg.Data.CacheTTL) * time.Second
		provider = NewCachedProvider(provider, rdb, ttl, logger)
	}
	return provider, nil
}

// CloseSeries extracts a recent closing-price series from a market data
// mapping, for the technical analyst's indicator tool. Accepts either a
// "price_history" list of numbers or of {close: n} mappings.
func CloseSeries(data map[string]interface{}) []float64 {
	raw, ok := data["price_history"].([]interface{})
	if !ok {
		return nil
	}
	closes := make([]float64, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case float64:
			closes = append(closes, v)
		case map[string]interface{}:
			if c, ok := v["close"].(float64); ok {
				closes = append(closes, c)
			}
		}
	}
	return closes
}
