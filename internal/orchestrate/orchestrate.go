// ABOUTME: Drives every (city, partner type) pair through resume check, collection and write.
// ABOUTME: Isolates failures per city so one bad city never stops the run.

package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/cities"
	"github.com/2389/partnergen/internal/collect"
	"github.com/2389/partnergen/internal/contact"
	"github.com/2389/partnergen/internal/normalize"
	"github.com/2389/partnergen/internal/output"
)

// Pair outcomes.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Collector gathers records for one pair.
type Collector interface {
	Collect(ctx context.Context, p collect.Pair, target int) ([]contact.Record, collect.Stats, error)
}

// PairOutcome describes what happened to one pair.
type PairOutcome struct {
	CityID   string
	Type     contact.PartnerType
	Status   string
	Rows     int
	Attempts int
	Path     string
	Duration time.Duration
	Err      error
}

// CityFailure records a city abandoned after an error or panic.
type CityFailure struct {
	CityID string
	Err    error
}

// Observer receives outcomes as they happen. Run history and metrics hang off it.
type Observer interface {
	PairDone(PairOutcome)
	CityFailed(CityFailure)
}

// Summary totals a run.
type Summary struct {
	Cities       int
	PairsWritten int
	PairsSkipped int
	RowsWritten  int
	Failures     []CityFailure
}

// Runner processes cities sequentially.
type Runner struct {
	Collector Collector
	Store     output.CompletionStore
	Codes     normalize.Codes
	OutRoot   string
	PerType   int
	// Types restricts the partner types processed; empty means all of them.
	Types    []contact.PartnerType
	Logger   *zap.Logger
	Observer Observer
}

// Run processes every city. Per-city errors are collected in the summary; the
// run itself only stops early when ctx is done.
func (r *Runner) Run(ctx context.Context, list []cities.City) Summary {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	types := r.Types
	if len(types) == 0 {
		types = contact.PartnerTypes
	}

	var sum Summary
	for i, city := range list {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", zap.Int("remaining_cities", len(list)-i), zap.Error(ctx.Err()))
			break
		}
		sum.Cities++
		logger.Info(fmt.Sprintf("[%d/%d] %s", i+1, len(list), city.ID))

		if err := r.runCity(ctx, logger, city, types, &sum); err != nil {
			failure := CityFailure{CityID: city.ID, Err: err}
			sum.Failures = append(sum.Failures, failure)
			logger.Error("city failed", zap.String("city", city.ID), zap.Error(err))
			if r.Observer != nil {
				r.Observer.CityFailed(failure)
			}
		}
	}

	logger.Info("run finished",
		zap.Int("cities", sum.Cities),
		zap.Int("pairs_written", sum.PairsWritten),
		zap.Int("pairs_skipped", sum.PairsSkipped),
		zap.Int("rows_written", sum.RowsWritten),
		zap.Int("failures", len(sum.Failures)))
	return sum
}

func (r *Runner) runCity(ctx context.Context, logger *zap.Logger, city cities.City, types []contact.PartnerType, sum *Summary) (err error) {
	var current PairOutcome
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		if err != nil && current.Path != "" {
			current.Status = StatusFailed
			current.Err = err
			r.notify(current)
		}
	}()

	pair := collect.Pair{
		City:     city,
		ISO3:     r.Codes.CountryToISO3(city.Country),
		Lang2:    r.Codes.LanguageToISO2(city.Language()),
		CityName: city.DisplayName(),
	}

	for j, t := range types {
		path := output.PairPath(r.OutRoot, city.ID, t)
		current = PairOutcome{CityID: city.ID, Type: t, Path: path}

		if r.Store.Exists(path) {
			logger.Info(fmt.Sprintf("  [%d/%d] %s: skip, already exists", j+1, len(types), t), zap.String("path", path))
			sum.PairsSkipped++
			current.Status = StatusSkipped
			r.notify(current)
			continue
		}

		logger.Info(fmt.Sprintf("  [%d/%d] %s", j+1, len(types), t))
		start := time.Now()
		pair.Type = t
		records, stats, err := r.Collector.Collect(ctx, pair, r.PerType)
		current.Attempts = len(stats.Attempts)
		current.Duration = time.Since(start)
		if err != nil {
			return fmt.Errorf("collect %s: %w", t, err)
		}
		if err := r.Store.Write(path, records); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		logger.Info(fmt.Sprintf("    Wrote %d → %s", len(records), path))
		sum.PairsWritten++
		sum.RowsWritten += len(records)
		current.Status = StatusWritten
		current.Rows = len(records)
		r.notify(current)
	}
	current = PairOutcome{}
	return nil
}

func (r *Runner) notify(o PairOutcome) {
	if r.Observer != nil {
		r.Observer.PairDone(o)
	}
}

// Err combines the summary's city failures into one error, or nil.
func (s Summary) Err() error {
	errs := make([]error, 0, len(s.Failures))
	for _, f := range s.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.CityID, f.Err))
	}
	return errors.Join(errs...)
}
