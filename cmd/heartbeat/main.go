package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/cmd/common"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/config"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/notifications"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/safety"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/reporting"
)

const appName = "heartbeat"

// heartbeatLogToStdout selects stdout instead of daily files for HEARTBEAT_LOG_DIR
const heartbeatLogToStdout = "-"

type options struct {
	common *common.CommonFlags

	ticks    int
	interval time.Duration
	start    string

	dataSource string
	dataRoot   string

	equityUSD float64
	riskOn    float64
	usd       float64
	carryRate float64
	carryVol  float64

	tables      bool
	xlsxPath    string
	csvPath     string
	metricsAddr string
	serve       bool
	useState    bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (*options, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(out)

	o := &options{common: common.RegisterCommonFlagsOn(fs)}
	fs.IntVar(&o.ticks, "ticks", 1, "Number of heartbeats to run")
	fs.DurationVar(&o.interval, "interval", 24*time.Hour, "Simulated time between heartbeats")
	fs.StringVar(&o.start, "start", "", "Time of the first heartbeat, RFC3339 (default now)")

	fs.StringVar(&o.dataSource, "data", "synthetic", "Daily bar source: synthetic or csv")
	fs.StringVar(&o.dataRoot, "data-root", "data", "Directory holding <SYMBOL>.csv daily bars")

	fs.Float64Var(&o.equityUSD, "equity", 0, "Current portfolio equity in USD (default: profile initial equity)")
	fs.Float64Var(&o.riskOn, "risk-on", 1.0, "Risk-on macro scalar for equity index futures")
	fs.Float64Var(&o.usd, "usd", 1.0, "USD macro scalar for currency futures")
	fs.Float64Var(&o.carryRate, "carry-rate", 0.02, "Annualized EUR-USD carry for 6E")
	fs.Float64Var(&o.carryVol, "carry-vol", 0.01, "Volatility of the 6E carry rate")

	fs.BoolVar(&o.tables, "tables", true, "Print envelope, plan and order tables")
	fs.StringVar(&o.xlsxPath, "xlsx", "", "Write the heartbeat journal workbook to this path")
	fs.StringVar(&o.csvPath, "csv", "", "Write the heartbeat journal as CSV to this path")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address (overrides METRICS_ADDR)")
	fs.BoolVar(&o.serve, "serve", false, "Keep serving metrics after the last heartbeat until interrupted")
	fs.BoolVar(&o.useState, "state", false, "Restore and save the session snapshot (high-water marks and positions)")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return o, fs, nil
}

func (o *options) validate() error {
	v := common.NewFlagValidator().
		ValidateInt("ticks", o.ticks, 1, 10_000).
		ValidateChoice("data", o.dataSource, []string{"synthetic", "csv"}).
		ValidateFloat("risk-on", o.riskOn, 0, 10).
		ValidateFloat("usd", o.usd, 0, 10).
		ValidateFloat("equity", o.equityUSD, 0, 1e12)
	if o.interval <= 0 {
		v.AddError(fmt.Sprintf("interval must be positive, got: %s", o.interval))
	}
	if o.dataSource == "csv" {
		v.ValidateDirectory("data-root", o.dataRoot, true)
	}
	return v.GetError()
}

func (o *options) startTime() (time.Time, error) {
	if o.start == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, o.start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -start: %w", err)
	}
	return t.UTC(), nil
}

func run(args []string, out io.Writer) error {
	opts, fs, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *opts.common.Help {
		common.NewUsageFormatter(appName, "run macro futures heartbeats under the global risk kernel").
			AddExample(appName+" -ticks 5", "five daily heartbeats over synthetic data").
			AddExample(appName+" -data csv -data-root data/daily -xlsx results/journal.xlsx", "heartbeat over CSV bars with an Excel journal").
			PrintUsage(out, fs)
		return nil
	}
	if *opts.common.Version {
		common.PrintVersion(out, appName)
		return nil
	}

	console := opts.common.NewConsoleLogger(out)
	if err := common.NewEnvLoader(console).LoadEnvFile(*opts.common.EnvFile); err != nil {
		return err
	}
	if err := opts.validate(); err != nil {
		return err
	}

	cfg := config.Load()
	if *opts.common.ProfileFile != "" {
		cfg.ProfileFile = *opts.common.ProfileFile
	}
	if opts.metricsAddr != "" {
		cfg.Monitoring.MetricsAddr = opts.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	profile, err := config.LoadProfile(cfg)
	if err != nil {
		return err
	}

	console.Header("Sleeve Risk Engine heartbeat")
	console.Info("Profile %s, %d tick(s), %s data", profile.Name, opts.ticks, opts.dataSource)

	log := logger.NewWriterLogger(appName, io.Discard)
	if *opts.common.Verbose {
		log = logger.NewWriterLogger(appName, os.Stderr)
	}

	eng, err := newEngine(cfg, profile, opts, log)
	if err != nil {
		return err
	}
	defer eng.close()

	if cfg.Monitoring.MetricsAddr != "" {
		srv := startMetricsServer(cfg.Monitoring.MetricsAddr, eng.session.HealthChecker(), console)
		defer shutdownServer(srv)
	}

	start, err := opts.startTime()
	if err != nil {
		return err
	}
	carry := &strategy.FxCarryFeatures{CarryRateAnnualized: opts.carryRate, CarryRateVol252d: opts.carryVol}
	source := newHistorySource(opts, carry, log, console)

	reporter := reporting.NewReporter(out)
	var journal reporting.Journal

	for i := 0; i < opts.ticks; i++ {
		now := start.Add(time.Duration(i) * opts.interval)
		histories, err := source(now)
		if err != nil {
			return err
		}

		in := eng.tickInput(now, histories)
		result, err := eng.session.Tick(now, in)
		if err != nil {
			return fmt.Errorf("heartbeat at %s: %w", now.Format(time.RFC3339), err)
		}
		health := eng.supervisor.Health()
		journal.Add(reporting.NewJournalEntry(now, profile.Name, health, result))

		console.Info("Tick %d at %s: %s, risk %s, %d order(s)",
			i+1, now.Format("2006-01-02 15:04"), health, common.FormatEUR(result.Heartbeat.Plan.Aggregate.TotalRiskEUR), len(result.EngineOrders))
		for _, sinkErr := range result.SinkErrors {
			console.Warn("delivery failed: %v", sinkErr)
		}
		if opts.tables {
			reporter.PrintEnvelopes([]risk.SleeveRiskEnvelope{result.Envelope})
			reporter.PrintPlan(result.Heartbeat.Plan)
			reporter.PrintOrders(result.EngineOrders)
		}
	}

	if err := eng.session.Close(); err != nil {
		console.Warn("flushing heartbeat log: %v", err)
	}
	if opts.xlsxPath != "" {
		if err := reporter.WriteJournalXLSX(journal.Entries(), opts.xlsxPath); err != nil {
			return fmt.Errorf("write journal workbook: %w", err)
		}
		console.Success("Journal written to %s", opts.xlsxPath)
	}
	if opts.csvPath != "" {
		if err := reporter.WriteJournalCSV(journal.Entries(), opts.csvPath); err != nil {
			return fmt.Errorf("write journal csv: %w", err)
		}
		console.Success("Journal written to %s", opts.csvPath)
	}
	if opts.useState {
		if err := eng.saveState(start.Add(time.Duration(opts.ticks-1) * opts.interval)); err != nil {
			console.Warn("saving session snapshot: %v", err)
		}
	}

	stats := eng.session.ErrorStats()
	console.Success("%d heartbeat(s) done, %d delivery error(s)", eng.session.Ticks(), stats.TotalErrors)

	if opts.serve && cfg.Monitoring.MetricsAddr != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		console.Info("Serving metrics on %s, Ctrl+C to stop", cfg.Monitoring.MetricsAddr)
		<-ctx.Done()
	}
	return nil
}

func startMetricsServer(addr string, health *monitoring.HealthChecker, console *common.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			console.Error("metrics server: %v", err)
		}
	}()
	console.Info("Metrics on http://%s/metrics, health on /health", addr)
	return srv
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

// notifierFor returns the telegram notifier when configured
func notifierFor(cfg *config.Config) notifications.Notifier {
	if !cfg.TelegramEnabled() {
		return nil
	}
	n := cfg.Notifications
	telegram := notifications.NewTelegramNotifier(n.TelegramToken, n.TelegramChatID)
	limiter := safety.NewRateLimiter("alerts", n.MaxAlertsPerHour, float64(n.MaxAlertsPerHour))
	breaker := safety.NewCircuitBreaker("telegram", safety.CircuitBreakerConfig{
		FailureThreshold: uint32(n.BreakerFailures),
		Timeout:          n.BreakerCooldown,
	})
	return notifications.NewGuardedNotifier(telegram, limiter, breaker)
}
