package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zankke/first-ent/logger"
	errs "github.com/zankke/first-ent/pkg/errors"
	"github.com/zankke/first-ent/services/cache"
)

const (
	providerName      = "serpapi"
	rateLimitCacheKey = "serpapi_rate_limit"
)

// Options configures the SerpAPI client. Zero values fall back to the
// defaults used by the scheduled crawl.
type Options struct {
	BaseURL   string
	APIKey    string // fallback when no KeyProvider record is active
	Lang      string
	Country   string
	PageSize  int
	Timeout   time.Duration
	Retries   int
	Backoff   time.Duration
	BlockTime time.Duration
}

func (o *Options) fillDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = "https://serpapi.com/search.json"
	}
	if o.Lang == "" {
		o.Lang = "ko"
	}
	if o.Country == "" {
		o.Country = "kr"
	}
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = 2 * time.Second
	}
	if o.BlockTime <= 0 {
		o.BlockTime = 5 * time.Minute
	}
}

// SerpAPIClient searches Google news results through SerpAPI.
type SerpAPIClient struct {
	client   *resty.Client
	keys     KeyProvider
	cacheSvc cache.CacheService
	opts     Options
	sleep    func(time.Duration)
	log      *logger.Logger
}

var _ Provider = (*SerpAPIClient)(nil)

// NewSerpAPIClient creates a SerpAPI search client. keys and cacheSvc may
// be nil; the static key from opts and no rate-limit blocking are used then.
func NewSerpAPIClient(opts Options, keys KeyProvider, cacheSvc cache.CacheService) *SerpAPIClient {
	opts.fillDefaults()
	return &SerpAPIClient{
		client:   resty.New().SetTimeout(opts.Timeout),
		keys:     keys,
		cacheSvc: cacheSvc,
		opts:     opts,
		sleep:    time.Sleep,
		log:      logger.ForSearch(providerName),
	}
}

// serpResponse is the subset of the SerpAPI payload the pipeline consumes
type serpResponse struct {
	NewsResults []RawRecord `json:"news_results"`
	Error       string      `json:"error"`
}

// Search runs one news query. It retries transport failures with linear
// backoff up to the configured attempt count. Empty results return an
// empty slice, not an error.
func (c *SerpAPIClient) Search(ctx context.Context, query string) ([]RawRecord, error) {
	apiKey, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	if c.blocked() {
		return nil, errs.NewRateLimit(providerName, c.opts.BlockTime)
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.Retries; attempt++ {
		records, err := c.doSearch(ctx, apiKey, query)
		if err == nil {
			return records, nil
		}
		lastErr = err

		var ce *errs.CrawlError
		retryable := false
		if e, ok := err.(*errs.CrawlError); ok {
			ce = e
			retryable = ce.IsRetryable()
		}
		if !retryable || attempt == c.opts.Retries {
			break
		}

		wait := time.Duration(attempt) * c.opts.Backoff
		c.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("SerpAPI 요청 실패, 재시도")
		c.sleep(wait)
	}

	return nil, lastErr
}

// apiKey prefers the active credential record and falls back to the
// statically configured key, matching the original key lookup order.
func (c *SerpAPIClient) apiKey(ctx context.Context) (string, error) {
	if c.keys != nil {
		if key, err := c.keys.ActiveAPIKey(ctx, providerName); err == nil && key != "" {
			return key, nil
		}
	}
	if c.opts.APIKey != "" {
		return c.opts.APIKey, nil
	}
	return "", errs.NewConfiguration("SerpAPI 키를 찾을 수 없습니다", nil)
}

// blocked reports whether a previous 429 response set a rate-limit block
func (c *SerpAPIClient) blocked() bool {
	if c.cacheSvc == nil {
		return false
	}
	_, err := c.cacheSvc.Get(rateLimitCacheKey)
	return err == nil
}

func (c *SerpAPIClient) doSearch(ctx context.Context, apiKey, query string) ([]RawRecord, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key": apiKey,
			"engine":  "google",
			"tbm":     "nws",
			"q":       query,
			"gl":      c.opts.Country,
			"hl":      c.opts.Lang,
			"num":     strconv.Itoa(c.opts.PageSize),
		}).
		Get(c.opts.BaseURL)
	if err != nil {
		return nil, errs.NewNetwork(providerName, fmt.Sprintf("요청 실패: %s", query), err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		c.setBlock()
		return nil, errs.NewRateLimit(providerName, c.opts.BlockTime)
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, errs.NewConfiguration(fmt.Sprintf("인증 실패 (status %d)", resp.StatusCode()), nil)
	case resp.StatusCode() != http.StatusOK:
		return nil, errs.NewNetwork(providerName, fmt.Sprintf("unexpected status code: %d", resp.StatusCode()), nil)
	}

	var payload serpResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, errs.NewParsing(providerName, "응답 파싱 오류", err)
	}
	if payload.Error != "" {
		return nil, errs.NewNetwork(providerName, payload.Error, nil)
	}

	if len(payload.NewsResults) == 0 {
		c.log.Warn().Str("query", query).Msg("뉴스 결과를 찾을 수 없습니다")
		return nil, nil
	}

	return payload.NewsResults, nil
}

// setBlock records a provider-level block so sibling crawls back off too
func (c *SerpAPIClient) setBlock() {
	if c.cacheSvc == nil {
		return
	}
	seconds := strconv.Itoa(int(c.opts.BlockTime / time.Second))
	if err := c.cacheSvc.Set(rateLimitCacheKey, []byte(seconds), c.opts.BlockTime); err != nil {
		c.log.Warn().Err(err).Msg("rate limit 블록 저장 실패")
	}
}
