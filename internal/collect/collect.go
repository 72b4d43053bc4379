// ABOUTME: Bounded retry loop that accumulates contacts for one (city, type) pair.
// ABOUTME: Over-requests per attempt, dedupes across attempts and paces calls.

package collect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/cities"
	"github.com/2389/partnergen/internal/contact"
	"github.com/2389/partnergen/internal/gateway"
	"github.com/2389/partnergen/internal/prompt"
	"github.com/2389/partnergen/internal/validate"
)

// Defaults for Config.
const (
	DefaultMaxAttempts = 4
	DefaultOverRequest = 2
	DefaultDelay       = 600 * time.Millisecond
)

// Generator produces raw contacts for a request.
type Generator interface {
	Generate(ctx context.Context, req prompt.Request) (*gateway.Result, error)
}

// Config tunes the loop.
type Config struct {
	MaxAttempts int
	OverRequest int
	Delay       time.Duration
}

// Pair identifies what to collect and the canonical values to stamp on rows.
type Pair struct {
	City     cities.City
	Type     contact.PartnerType
	ISO3     string
	Lang2    string
	CityName string
}

// Attempt records the yield of one generation call.
type Attempt struct {
	Raw      int
	Valid    int
	New      int
	Repaired bool
}

// Stats describes a finished collection.
type Stats struct {
	Attempts []Attempt
	Target   int
	Returned int
}

// Collector runs the accumulation loop.
type Collector struct {
	gen       Generator
	validator *validate.Validator
	cfg       Config
	logger    *zap.Logger

	// Sleep pauses between attempts; replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Collector. Zero config values take the defaults, except Delay
// which may legitimately be zero.
func New(gen Generator, validator *validate.Validator, cfg Config, logger *zap.Logger) *Collector {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.OverRequest < 1 {
		cfg.OverRequest = DefaultOverRequest
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		gen:       gen,
		validator: validator,
		cfg:       cfg,
		logger:    logger,
		Sleep:     sleepContext,
	}
}

// Collect gathers up to target unique records for p. It returns fewer only when
// every attempt has been used. A generation error ends the loop and is returned
// as is.
func (c *Collector) Collect(ctx context.Context, p Pair, target int) ([]contact.Record, Stats, error) {
	stats := Stats{Target: target}
	if target <= 0 {
		return nil, stats, nil
	}

	constraints := validate.Constraints{
		Country:  p.ISO3,
		Language: p.Lang2,
		City:     p.CityName,
		Type:     p.Type,
	}
	req, err := prompt.Build(prompt.Input{
		City:     p.City,
		Type:     p.Type,
		ISO3:     p.ISO3,
		Lang2:    p.Lang2,
		CityName: p.CityName,
		Target:   target,
	})
	if err != nil {
		return nil, stats, err
	}

	var collected []contact.Record
	seen := make(map[string]struct{})

	for len(collected) < target && len(stats.Attempts) < c.cfg.MaxAttempts {
		result, err := c.gen.Generate(ctx, req)
		if err != nil {
			return nil, stats, err
		}

		batch, _ := c.validator.Validate(result.Contacts, c.cfg.OverRequest*target, constraints)
		attempt := Attempt{Raw: len(result.Contacts), Valid: len(batch), Repaired: result.Repaired}
		for _, r := range batch {
			key, _ := r.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			collected = append(collected, r)
			attempt.New++
		}
		stats.Attempts = append(stats.Attempts, attempt)

		c.logger.Debug("collection attempt",
			zap.String("city", p.City.ID),
			zap.String("type", string(p.Type)),
			zap.Int("attempt", len(stats.Attempts)),
			zap.Int("raw", attempt.Raw),
			zap.Int("new", attempt.New),
			zap.Int("collected", len(collected)),
			zap.Int("target", target))

		if err := c.Sleep(ctx, c.cfg.Delay); err != nil {
			return nil, stats, err
		}
	}

	if len(collected) > target {
		collected = collected[:target]
	}
	if len(collected) < target {
		c.logger.Info("target not reached",
			zap.String("city", p.City.ID),
			zap.String("type", string(p.Type)),
			zap.Int("collected", len(collected)),
			zap.Int("target", target),
			zap.Int("attempts", len(stats.Attempts)))
	}
	stats.Returned = len(collected)
	return collected, stats, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
