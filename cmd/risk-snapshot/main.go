package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/cmd/common"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/config"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/reporting"
)

const appName = "risk-snapshot"

// Volatility snapshot used while no market feed is wired
var defaultVolRegime = risk.VolatilityRegime{
	RealizedVol10d: 12.0,
	VIXLevel:       18.0,
	VIXTermSlope:   0.3,
	RegimeScalar:   1.0,
}

type options struct {
	common *common.CommonFlags

	at        string
	equityUSD float64
	leverage  float64
	notional  float64
	marginReq float64

	json    bool
	outPath string
}

// SleeveView is one sleeve of the snapshot with readable enum names
type SleeveView struct {
	Envelope       risk.SleeveRiskEnvelope `json:"envelope"`
	SleeveHalt     string                  `json:"sleeve_halt_name"`
	PortfolioHalt  string                  `json:"portfolio_halt_name"`
	RiskState      string                  `json:"portfolio_risk_state_name"`
	Decision       risk.RiskDecision       `json:"decision"`
	DecisionReason string                  `json:"decision_reason"`
}

// Snapshot is the document printed with -json and written with -out
type Snapshot struct {
	Profile     string       `json:"profile"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
	EquityUSD   float64      `json:"equity_usd"`
	PeakUSD     float64      `json:"peak_equity_usd"`
	Sleeves     []SleeveView `json:"sleeves"`
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
	fs.StringVar(&o.at, "at", "", "Evaluation time, RFC3339 (default now)")
	fs.Float64Var(&o.equityUSD, "equity", 0, "Portfolio equity in USD (default: profile initial equity)")
	fs.Float64Var(&o.leverage, "leverage", 0, "Current portfolio leverage")
	fs.Float64Var(&o.notional, "notional", 0, "Total notional exposure in USD")
	fs.Float64Var(&o.marginReq, "margin", 0, "Internal margin requirement in USD")
	fs.BoolVar(&o.json, "json", false, "Print the snapshot as JSON instead of a table")
	fs.StringVar(&o.outPath, "out", "", "Write the snapshot JSON to this path")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return o, fs, nil
}

func (o *options) validate() error {
	return common.NewFlagValidator().
		ValidateFloat("equity", o.equityUSD, 0, 1e12).
		ValidateFloat("leverage", o.leverage, 0, 100).
		ValidateFloat("notional", o.notional, 0, 1e13).
		ValidateFloat("margin", o.marginReq, 0, 1e12).
		GetError()
}

func (o *options) evaluationTime() (time.Time, error) {
	if o.at == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, o.at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -at: %w", err)
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
		common.NewUsageFormatter(appName, "print the risk envelopes the kernel grants each sleeve").
			AddExample(appName, "envelopes for the configured profile at its initial equity").
			AddExample(appName+" -equity 8800 -json -out results/snapshot.json", "envelopes after a drawdown, saved as JSON").
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
	at, err := opts.evaluationTime()
	if err != nil {
		return err
	}

	cfg := config.Load()
	if *opts.common.ProfileFile != "" {
		cfg.ProfileFile = *opts.common.ProfileFile
	}
	profile, err := config.LoadProfile(cfg)
	if err != nil {
		return err
	}

	log := logger.NewWriterLogger(appName, io.Discard)
	if *opts.common.Verbose {
		log = logger.NewWriterLogger(appName, os.Stderr)
	}

	snap, err := evaluate(profile, opts, at, log)
	if err != nil {
		return err
	}

	if opts.json {
		if err := reporting.NewDefaultJSONFormatter().Print(out, snap); err != nil {
			return err
		}
	} else {
		console.Header("Risk snapshot " + profile.Name)
		console.Info("Equity %s, peak %s", common.FormatCurrency(snap.EquityUSD), common.FormatCurrency(snap.PeakUSD))
		envelopes := make([]risk.SleeveRiskEnvelope, len(snap.Sleeves))
		for i, s := range snap.Sleeves {
			envelopes[i] = s.Envelope
		}
		reporting.NewConsoleReporter(out).PrintEnvelopes(envelopes)
	}

	if opts.outPath != "" {
		if err := reporting.WriteJSON(snap, opts.outPath); err != nil {
			return err
		}
		if !opts.json {
			console.Success("Snapshot written to %s", opts.outPath)
		}
	}
	return nil
}

// evaluate runs one kernel pass over fresh sleeve states and checks each
// sleeve for room to open a position.
func evaluate(profile config.Profile, opts *options, at time.Time, log *logger.Logger) (*Snapshot, error) {
	kernel, err := risk.NewKernel(profile.Kernel, log)
	if err != nil {
		return nil, err
	}

	equity := profile.Kernel.Portfolio.InitialEquityUSD
	if opts.equityUSD > 0 {
		equity = opts.equityUSD
	}

	sleeves := make([]risk.SleeveState, 0, len(profile.Kernel.Sleeves))
	for _, s := range profile.Kernel.Sleeves {
		sleeves = append(sleeves, risk.SleeveState{
			SleeveID:      s.SleeveID,
			EquityUSD:     s.CapitalAllocUSD,
			PeakEquityUSD: s.CapitalAllocUSD,
		})
	}

	portfolio := risk.PortfolioState{
		CashUSD:               equity,
		TotalNotionalExposure: opts.notional,
		CurrentLeverage:       opts.leverage,
	}
	margin := risk.MarginState{InternalMarginReqUSD: opts.marginReq, EquityUSD: equity}

	envelopes, err := kernel.Evaluate(at, portfolio, sleeves, margin, defaultVolRegime)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Profile:     profile.Name,
		EvaluatedAt: at,
		EquityUSD:   equity,
		PeakUSD:     kernel.PortfolioPeakEquity(),
		Sleeves:     make([]SleeveView, len(envelopes)),
	}
	for i, env := range envelopes {
		decision := risk.EvaluateNewPositionRisk(sleeves[i], env)
		snap.Sleeves[i] = SleeveView{
			Envelope:       env,
			SleeveHalt:     env.SleeveHalt.String(),
			PortfolioHalt:  env.PortfolioHalt.String(),
			RiskState:      env.PortfolioRiskState.String(),
			Decision:       decision,
			DecisionReason: decision.Reason.String(),
		}
	}
	return snap, nil
}
