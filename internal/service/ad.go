package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/xeenaps/pkm/internal/domain"
	"github.com/xeenaps/pkm/internal/domain/ad"
	"github.com/xeenaps/pkm/internal/port/cache"
	"github.com/xeenaps/pkm/internal/resilience"
)

const maxAdFeedBytes = 4 << 20

// AdService reads the VIP advertisement from a published spreadsheet CSV.
type AdService struct {
	url        string
	httpClient *http.Client
	breaker    *resilience.Breaker
	cache      cache.Cache
	ttl        time.Duration
}

// NewAdService creates an AdService. An empty url disables the feed.
func NewAdService(url string, timeout time.Duration, c cache.Cache, ttl time.Duration) *AdService {
	return &AdService{url: url, httpClient: &http.Client{Timeout: timeout}, cache: c, ttl: ttl}
}

// SetBreaker attaches a circuit breaker to feed requests.
func (s *AdService) SetBreaker(b *resilience.Breaker) { s.breaker = b }

// FetchVipAd returns the active ad, or nil when none is active or the feed
// cannot be read.
func (s *AdService) FetchVipAd(ctx context.Context) *ad.VipAd {
	if s.url == "" {
		return nil
	}
	if s.cache != nil {
		if v, ok, err := cache.GetJSON[ad.VipAd](ctx, s.cache, cache.KeyVipAd); err == nil && ok {
			return &v
		}
	}

	vip, err := s.fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "vip ad feed unavailable", "error", err)
		return nil
	}
	if vip != nil && s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, cache.KeyVipAd, vip, s.ttl); err != nil {
			slog.WarnContext(ctx, "vip ad cache write failed", "error", err)
		}
	}
	return vip
}

func (s *AdService) fetch(ctx context.Context) (*ad.VipAd, error) {
	var body string
	call := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
		if err != nil {
			return fmt.Errorf("ad feed request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: ad feed: %w", domain.ErrUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: ad feed status %d", domain.ErrUnavailable, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAdFeedBytes))
		if err != nil {
			return fmt.Errorf("ad feed read: %w", err)
		}
		body = string(data)
		return nil
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.ExecuteContext(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return ad.SelectActive(body)
}
