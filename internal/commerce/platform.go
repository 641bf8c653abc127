package commerce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Platform is the remote store platform.
type Platform interface {
	Authorize(ctx context.Context, shopURL string) (token string, err error)
	Fetch(ctx context.Context, shopURL, token string) (Dataset, error)
}

type MockConfig struct {
	Delay     time.Duration
	RateLimit rate.Limit
	BurstSize int
}

// MockPlatform answers every call with the embedded sample after Delay.
// Calls are throttled like a real API client would be.
type MockPlatform struct {
	delay   time.Duration
	limiter *rate.Limiter
	sample  Dataset
}

func NewMockPlatform(cfg MockConfig) (*MockPlatform, error) {
	sample, err := SampleDataset()
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Inf
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	return &MockPlatform{
		delay:   cfg.Delay,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.BurstSize),
		sample:  sample,
	}, nil
}

func (p *MockPlatform) Authorize(ctx context.Context, shopURL string) (string, error) {
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	return "mock_token_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12], nil
}

func (p *MockPlatform) Fetch(ctx context.Context, shopURL, token string) (Dataset, error) {
	if token == "" {
		return Dataset{}, fmt.Errorf("fetch %s: missing access token", shopURL)
	}
	if err := p.wait(ctx); err != nil {
		return Dataset{}, err
	}
	out := Dataset{
		Sales:    append([]SalesPoint(nil), p.sample.Sales...),
		Products: append([]ProductShare(nil), p.sample.Products...),
	}
	return out, nil
}

func (p *MockPlatform) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if p.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
