// ABOUTME: Command implementations wiring config, gateway, collector, stores and metrics together.
// ABOUTME: Also hosts the observer that fans run events out to history and metrics.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/2389/partnergen/internal/cities"
	"github.com/2389/partnergen/internal/collect"
	"github.com/2389/partnergen/internal/config"
	"github.com/2389/partnergen/internal/gateway"
	"github.com/2389/partnergen/internal/logging"
	"github.com/2389/partnergen/internal/metrics"
	"github.com/2389/partnergen/internal/mockai"
	"github.com/2389/partnergen/internal/normalize"
	"github.com/2389/partnergen/internal/orchestrate"
	"github.com/2389/partnergen/internal/output"
	"github.com/2389/partnergen/internal/store"
	"github.com/2389/partnergen/internal/validate"
)

func runGenerate(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	types, err := cfg.PartnerTypes()
	if err != nil {
		return err
	}

	cityList := cities.Default()
	if cfg.CitiesFile != "" {
		if cityList, err = cities.LoadFile(cfg.CitiesFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := &runRecorder{logger: logger, metrics: metrics.New()}
	if history := openHistory(cfg, logger); history != nil {
		defer history.Close()
		rec.history = history
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	gw, err := gateway.New(backend,
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Timeout),
		gateway.WithCallHook(rec.Call),
	)
	if err != nil {
		return err
	}
	validator, err := validate.New(logger)
	if err != nil {
		return err
	}
	collector := collect.New(gw, validator, collect.Config{
		MaxAttempts: cfg.MaxAttempts,
		OverRequest: cfg.OverRequest,
		Delay:       cfg.Delay,
	}, logger)

	run := &store.Run{
		Provider: backend.Name(),
		Model:    backend.Model(),
		OutRoot:  cfg.Out,
		PerType:  cfg.PerType,
		Cities:   len(cityList),
	}
	rec.start(run)

	logger.Info("starting run",
		zap.String("provider", backend.Name()),
		zap.String("model", backend.Model()),
		zap.Int("cities", len(cityList)),
		zap.Int("types", len(types)),
		zap.Int("per_type", cfg.PerType),
		zap.String("out", cfg.Out))

	runner := &orchestrate.Runner{
		Collector: collector,
		Store:     output.FileStore{},
		Codes:     normalize.DefaultCodes(),
		OutRoot:   cfg.Out,
		PerType:   cfg.PerType,
		Types:     types,
		Logger:    logger,
		Observer:  rec,
	}
	sum := runner.Run(ctx, cityList)

	rec.finish(run, sum)
	if cfg.MetricsFile != "" {
		if err := rec.metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d pairs written, %d skipped, %d rows, %d failed cities\n",
		sum.PairsWritten, sum.PairsSkipped, sum.RowsWritten, len(sum.Failures))
	return nil
}

func newBackend(ctx context.Context, cfg *config.Config) (gateway.Backend, error) {
	return gateway.Open(ctx, cfg.Provider, gateway.ProviderConfig{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	})
}

// openHistory opens the run history database. History is best effort: a
// failure is logged and the run continues without it.
func openHistory(cfg *config.Config, logger *zap.Logger) *store.Store {
	if cfg.History == historyDisabled {
		return nil
	}
	path := cfg.History
	if path == "" {
		path = getDefaultDBPath(logger)
	}
	path, err := validateAndCleanDBPath(path)
	if err != nil {
		logger.Warn("run history disabled", zap.Error(err))
		return nil
	}
	s, err := store.New(path, logger)
	if err != nil {
		logger.Warn("run history disabled", zap.String("path", path), zap.Error(err))
		return nil
	}
	return s
}

func runMerge(cmd *cobra.Command, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	report, err := output.Merge(cmd.Context(), cfg.Out, cfg.MergeOutput, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	m.ObserveMerge(report.Unique, report.Duplicate, report.NoChannel)
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	w := cmd.OutOrStdout()
	for _, f := range report.Files {
		if f.Err != nil {
			fmt.Fprintf(w, "  ! %s: %v\n", f.Path, f.Err)
			continue
		}
		fmt.Fprintf(w, "  + %s (%d rows)\n", f.Path, f.Rows)
	}
	if !report.Written {
		fmt.Fprintf(w, "No contacts to merge from %d files\n", len(report.Files))
		return nil
	}
	fmt.Fprintf(w, "Merged %d files → %s (%d unique contacts, %d duplicates dropped)\n",
		len(report.Files), report.Output, report.Unique, report.Duplicate)
	return nil
}

func runHistory(cmd *cobra.Command, cfg *config.Config, runID string, limit int) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	path := cfg.History
	if path == "" || path == historyDisabled {
		path = getDefaultDBPath(logger)
	}
	path, err = validateAndCleanDBPath(path)
	if err != nil {
		return err
	}
	s, err := store.New(path, logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer s.Close()

	runs, err := s.GetRuns(5)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	results, err := s.GetPairResults(&store.PairQuery{Limit: limit, RunID: runID})
	if err != nil {
		return fmt.Errorf("failed to list pair results: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tPROVIDER\tMODEL\tCITIES\tWRITTEN\tSKIPPED\tROWS\tFAILURES\tCALLS")
	for _, r := range runs {
		calls := "-"
		if st, err := s.GetCallStats(r.ID); err == nil {
			calls = strconv.Itoa(st.TotalCalls)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Format(time.DateTime), r.Provider, r.Model, r.Cities,
			r.PairsWritten, r.PairsSkipped, r.RowsWritten, r.Failures, calls)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "TIME\tCITY\tTYPE\tSTATUS\tROWS\tATTEMPTS\tERROR")
	for _, p := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			p.Timestamp.Format(time.DateTime), p.CityID, p.PartnerType, p.Status, p.Rows, p.Attempts, p.Error)
	}
	return tw.Flush()
}

func runMockServer(cmd *cobra.Command, cfg *config.Config, tokens []string) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.MockPort),
		Handler:           mockai.New(logger, tokens...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runRecorder receives run events and forwards them to history and metrics.
// Both sinks are optional.
type runRecorder struct {
	logger  *zap.Logger
	history *store.Store
	metrics *metrics.Recorder
	runID   string
}

func (r *runRecorder) start(run *store.Run) {
	if r.history == nil {
		return
	}
	id, err := r.history.StartRun(run)
	if err != nil {
		r.logger.Warn("failed to record run start", zap.Error(err))
		return
	}
	r.runID = id
}

func (r *runRecorder) finish(run *store.Run, sum orchestrate.Summary) {
	if r.history == nil || r.runID == "" {
		return
	}
	run.PairsWritten = sum.PairsWritten
	run.PairsSkipped = sum.PairsSkipped
	run.RowsWritten = sum.RowsWritten
	run.Failures = len(sum.Failures)
	if err := r.history.FinishRun(run); err != nil {
		r.logger.Warn("failed to record run end", zap.Error(err))
	}
}

func (r *runRecorder) PairDone(o orchestrate.PairOutcome) {
	r.metrics.ObservePair(string(o.Type), o.Status, o.Rows, o.Attempts)
	if r.history == nil || r.runID == "" {
		return
	}
	p := &store.PairResult{
		RunID:       r.runID,
		CityID:      o.CityID,
		PartnerType: string(o.Type),
		Status:      o.Status,
		Rows:        o.Rows,
		Attempts:    o.Attempts,
		Path:        o.Path,
		DurationMs:  int(o.Duration.Milliseconds()),
	}
	if o.Err != nil {
		p.Error = o.Err.Error()
	}
	if err := r.history.RecordPair(p); err != nil {
		r.logger.Warn("failed to record pair", zap.String("city", o.CityID), zap.Error(err))
	}
}

func (r *runRecorder) CityFailed(f orchestrate.CityFailure) {
	r.metrics.ObserveCityFailure()
}

func (r *runRecorder) Call(info gateway.CallInfo) {
	r.metrics.ObserveCall(info.Provider, info.Duration, info.Repaired, info.Err)
	if r.history == nil || r.runID == "" {
		return
	}
	c := &store.GatewayCall{
		RunID:         r.runID,
		Provider:      info.Provider,
		Model:         info.Model,
		DurationMs:    int(info.Duration.Milliseconds()),
		ResponseBytes: info.ResponseBytes,
		FinishReason:  info.FinishReason,
		Repaired:      info.Repaired,
	}
	if info.Err != nil {
		c.Error = info.Err.Error()
	}
	if err := r.history.LogCall(c); err != nil {
		r.logger.Warn("failed to record call", zap.Error(err))
	}
}
