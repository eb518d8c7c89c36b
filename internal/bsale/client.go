package bsale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
	"github.com/fekuna/stockwatch-sync-service/pkg/metrics"
	"go.uber.org/zap"
)

// API is the provider contract the orchestrator and aggregator consume.
// The token is the tenant's provider access token.
type API interface {
	StreamStocks(ctx context.Context, token string) *StockStream
	GetVariantsBatch(ctx context.Context, token string, ids []int64) map[int64]Variant
	GetDocuments(ctx context.Context, token string, from, to time.Time) ([]Document, error)
	GetPriceLists(ctx context.Context, token string) ([]PriceList, error)
}

type Config struct {
	BaseURL      string
	PageSize     int
	MaxRetries   int
	RetryDelay   time.Duration
	RequestDelay time.Duration
	BatchSize    int
	BatchFanout  int
	Timeout      time.Duration
}

type Client struct {
	http   *http.Client
	cfg    Config
	logger logger.ZapLogger
}

// NewClient builds the process-wide provider client. It holds no per-tenant
// state; tenant tokens are passed per call.
func NewClient(cfg *Config, log logger.ZapLogger) *Client {
	c := *cfg
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BatchFanout <= 0 {
		c.BatchFanout = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: c.Timeout},
		cfg:    c,
		logger: log,
	}
}

var numericSegment = regexp.MustCompile(`\d+`)

// normalizeEndpoint collapses numeric path segments so metrics stay
// low-cardinality: /variants/123.json -> /variants/:id.json
func normalizeEndpoint(path string) string {
	return numericSegment.ReplaceAllString(path, ":id")
}

// request performs one GET with retry. 401 and 429 are never retried; 5xx and
// transport errors are retried up to MaxRetries with linearly increasing
// delay, after which the original error is returned.
func (c *Client) request(ctx context.Context, token, path string, params url.Values) ([]byte, error) {
	endpoint := normalizeEndpoint(path)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		body, err := c.doOnce(ctx, token, path, params, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		metrics.RecordProviderError(endpoint, KindOf(err).String())
		if !IsRetryable(err) {
			return nil, err
		}
		if attempt < c.cfg.MaxRetries {
			c.logger.Warn("retrying provider request",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-time.After(time.Duration(attempt) * c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, &APIError{Kind: KindNetwork, Endpoint: endpoint, Err: ctx.Err()}
			}
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, token, path string, params url.Values, endpoint string) ([]byte, error) {
	u := c.cfg.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &APIError{Kind: KindValidation, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("access_token", token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveProviderRequest(endpoint, "network_error", start)
		return nil, &APIError{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	metrics.ObserveProviderRequest(endpoint, fmt.Sprintf("%d", resp.StatusCode), start)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &APIError{Kind: KindAuth, StatusCode: resp.StatusCode, Endpoint: endpoint,
			Err: fmt.Errorf("provider token rejected")}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &APIError{Kind: KindRateLimit, StatusCode: resp.StatusCode, Endpoint: endpoint,
			Err: fmt.Errorf("provider rate limit")}
	case resp.StatusCode >= 500:
		return nil, &APIError{Kind: KindServer, StatusCode: resp.StatusCode, Endpoint: endpoint,
			Err: fmt.Errorf("provider server error: %s", truncate(body))}
	default:
		return nil, &APIError{Kind: KindValidation, StatusCode: resp.StatusCode, Endpoint: endpoint,
			Err: fmt.Errorf("unexpected status: %s", truncate(body))}
	}
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// FetchPage fetches one page of a paginated collection.
func (c *Client) FetchPage(ctx context.Context, token, path string, params url.Values) (*Page, error) {
	body, err := c.request(ctx, token, path, params)
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &APIError{Kind: KindValidation, Endpoint: normalizeEndpoint(path), Err: err}
	}
	return &p, nil
}

// StockStream is a lazy, finite, non-restartable sequence of stock items.
// Consume C until it closes, then check Err for a terminal failure.
type StockStream struct {
	C   <-chan StockItem
	err error
}

func (s *StockStream) Err() error { return s.err }

// NewStockStream runs produce in a goroutine; its return value becomes the
// stream's terminal error once the channel closes.
func NewStockStream(produce func(ch chan<- StockItem) error) *StockStream {
	ch := make(chan StockItem)
	s := &StockStream{C: ch}
	go func() {
		defer close(ch)
		s.err = produce(ch)
	}()
	return s
}

// StreamStocks paginates /stocks.json lazily: each page fetch depends on the
// previous offset, with a fixed inter-request delay between pages. The stream
// ends on the first short page.
func (c *Client) StreamStocks(ctx context.Context, token string) *StockStream {
	return NewStockStream(func(ch chan<- StockItem) error {
		offset := 0
		for {
			params := url.Values{}
			params.Set("expand", "[variant,office]")
			params.Set("limit", fmt.Sprintf("%d", c.cfg.PageSize))
			params.Set("offset", fmt.Sprintf("%d", offset))

			p, err := c.FetchPage(ctx, token, "/stocks.json", params)
			if err != nil {
				return err
			}

			var items []StockItem
			if err := json.Unmarshal(p.Items, &items); err != nil {
				return &APIError{Kind: KindValidation, Endpoint: "/stocks.json", Err: err}
			}

			for _, item := range items {
				select {
				case ch <- item:
				case <-ctx.Done():
					return &APIError{Kind: KindNetwork, Endpoint: "/stocks.json", Err: ctx.Err()}
				}
			}

			if len(items) < c.cfg.PageSize {
				return nil
			}
			offset += c.cfg.PageSize

			select {
			case <-time.After(c.cfg.RequestDelay):
			case <-ctx.Done():
				return &APIError{Kind: KindNetwork, Endpoint: "/stocks.json", Err: ctx.Err()}
			}
		}
	})
}

// GetVariantsBatch fetches variant metadata in chunks with bounded fan-out.
// Individual failures are logged and omitted from the result; the batch never
// aborts because one variant could not be fetched.
func (c *Client) GetVariantsBatch(ctx context.Context, token string, ids []int64) map[int64]Variant {
	result := make(map[int64]Variant, len(ids))
	if len(ids) == 0 {
		return result
	}

	seen := make(map[int64]struct{}, len(ids))
	unique := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	var mu sync.Mutex
	sem := make(chan struct{}, c.cfg.BatchFanout)

	for start := 0; start < len(unique); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(unique) {
			end = len(unique)
		}

		var wg sync.WaitGroup
		for _, id := range unique[start:end] {
			wg.Add(1)
			sem <- struct{}{}
			go func(id int64) {
				defer wg.Done()
				defer func() { <-sem }()

				v, err := c.getVariant(ctx, token, id)
				if err != nil {
					c.logger.Warn("variant fetch failed, skipping",
						zap.Int64("variant_id", id),
						zap.Error(err),
					)
					return
				}
				mu.Lock()
				result[id] = *v
				mu.Unlock()
			}(id)
		}
		wg.Wait()

		if end < len(unique) {
			select {
			case <-time.After(c.cfg.RequestDelay):
			case <-ctx.Done():
				return result
			}
		}
	}

	return result
}

func (c *Client) getVariant(ctx context.Context, token string, id int64) (*Variant, error) {
	path := fmt.Sprintf("/variants/%d.json", id)
	params := url.Values{}
	params.Set("expand", "[product]")

	body, err := c.request(ctx, token, path, params)
	if err != nil {
		return nil, err
	}

	var v Variant
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &APIError{Kind: KindValidation, Endpoint: normalizeEndpoint(path), Err: err}
	}
	return &v, nil
}

// GetDocuments fetches all sales documents emitted in [from, to].
func (c *Client) GetDocuments(ctx context.Context, token string, from, to time.Time) ([]Document, error) {
	var docs []Document

	offset := 0
	for {
		params := url.Values{}
		params.Set("expand", "[details]")
		params.Set("emissiondaterange", fmt.Sprintf("[%d,%d]", from.Unix(), to.Unix()))
		params.Set("limit", fmt.Sprintf("%d", c.cfg.PageSize))
		params.Set("offset", fmt.Sprintf("%d", offset))

		p, err := c.FetchPage(ctx, token, "/documents.json", params)
		if err != nil {
			return nil, err
		}

		var items []Document
		if err := json.Unmarshal(p.Items, &items); err != nil {
			return nil, &APIError{Kind: KindValidation, Endpoint: "/documents.json", Err: err}
		}
		docs = append(docs, items...)

		if len(items) < c.cfg.PageSize {
			return docs, nil
		}
		offset += c.cfg.PageSize

		select {
		case <-time.After(c.cfg.RequestDelay):
		case <-ctx.Done():
			return nil, &APIError{Kind: KindNetwork, Endpoint: "/documents.json", Err: ctx.Err()}
		}
	}
}

// GetPriceLists fetches the tenant's price lists. Consumed by the pricing
// view outside this service.
func (c *Client) GetPriceLists(ctx context.Context, token string) ([]PriceList, error) {
	var lists []PriceList

	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", c.cfg.PageSize))
		params.Set("offset", fmt.Sprintf("%d", offset))

		p, err := c.FetchPage(ctx, token, "/price_lists.json", params)
		if err != nil {
			return nil, err
		}

		var items []PriceList
		if err := json.Unmarshal(p.Items, &items); err != nil {
			return nil, &APIError{Kind: KindValidation, Endpoint: "/price_lists.json", Err: err}
		}
		lists = append(lists, items...)

		if len(items) < c.cfg.PageSize {
			return lists, nil
		}
		offset += c.cfg.PageSize

		select {
		case <-time.After(c.cfg.RequestDelay):
		case <-ctx.Done():
			return nil, &APIError{Kind: KindNetwork, Endpoint: "/price_lists.json", Err: ctx.Err()}
		}
	}
}
