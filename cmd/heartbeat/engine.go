package main

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/config"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/execution"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/state"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// Volatility snapshot used while no market feed is wired
var defaultVolRegime = risk.VolatilityRegime{
	RealizedVol10d: 12.0,
	VIXLevel:       18.0,
	VIXTermSlope:   0.3,
	RegimeScalar:   1.0,
}

// engine holds the long-lived collaborators of one heartbeat run
type engine struct {
	session    *execution.Session
	supervisor *monitoring.HeartbeatSupervisor
	store      *state.Store
	closers    []func() error

	equityUSD float64
	eurPerUSD float64
	macro     strategy.MacroScalars
}

func newEngine(cfg *config.Config, profile config.Profile, opts *options, log *logger.Logger) (*engine, error) {
	kernel, err := risk.NewKernel(profile.Kernel, log)
	if err != nil {
		return nil, err
	}
	sleeve, err := strategy.NewMacroFuturesSleeve(profile.MacroFutures, log)
	if err != nil {
		return nil, err
	}

	e := &engine{
		supervisor: monitoring.NewHeartbeatSupervisor(cfg.Heartbeat.MaxGap),
		equityUSD:  profile.Kernel.Portfolio.InitialEquityUSD,
		eurPerUSD:  cfg.Sizing.EURPerUSD,
		macro:      strategy.MacroScalars{RiskOnScalar: opts.riskOn, USDScalar: opts.usd},
	}
	if opts.equityUSD > 0 {
		e.equityUSD = opts.equityUSD
	}

	heartbeats, err := e.heartbeatSink(cfg)
	if err != nil {
		e.close()
		return nil, err
	}

	sleeves := initialSleeveStates(profile.Kernel)
	positions := map[strategy.FutureInstrument]int{}
	if opts.useState {
		e.store = state.NewStore(log, cfg.State.Dir, profile.Name)
		snap, err := e.store.Load()
		if err != nil {
			log.Warning("session snapshot unreadable, starting clean: %v", err)
		}
		if snap != nil {
			kernel.RestorePortfolioPeak(snap.PortfolioPeakEquityUSD)
			sleeves = mergeSleeveStates(sleeves, snap.Sleeves)
			positions = snap.PositionsByInstrument()
		}
	}

	maxSleeveRisk := cfg.Sizing.MaxSleeveRiskEUR
	if maxSleeveRisk == 0 {
		maxSleeveRisk = strategy.DefaultMaxSleeveRiskEUR(profile.Budget)
	}

	session, err := execution.NewSession(execution.SessionConfig{
		Kernel:           kernel,
		Sleeve:           sleeve,
		Supervisor:       e.supervisor,
		Orders:           execution.NewFileOrderSink(cfg.Heartbeat.OrderLogPath),
		Heartbeats:       heartbeats,
		Notifier:         notifierFor(cfg),
		Logger:           log,
		Sleeves:          sleeves,
		Positions:        positions,
		Budget:           profile.Budget,
		MaxSleeveRiskEUR: maxSleeveRisk,
		AssumeFills:      cfg.Heartbeat.AssumeFills,
	})
	if err != nil {
		e.close()
		return nil, err
	}
	e.session = session
	return e, nil
}

func (e *engine) heartbeatSink(cfg *config.Config) (execution.HeartbeatLogSink, error) {
	var inner execution.HeartbeatLogSink
	if cfg.Heartbeat.LogDir == heartbeatLogToStdout {
		inner = execution.NewStdoutHeartbeatLogger()
	} else {
		files, err := execution.NewFileHeartbeatLogger(cfg.Heartbeat.LogDir)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, files.Close)
		inner = files
	}
	if cfg.Heartbeat.BatchSize <= 1 {
		return inner, nil
	}
	return execution.NewBatchingHeartbeatLogger(inner, cfg.Heartbeat.BatchSize)
}

// initialSleeveStates starts every configured sleeve at its allocation
func initialSleeveStates(cfg risk.KernelConfig) []risk.SleeveState {
	out := make([]risk.SleeveState, 0, len(cfg.Sleeves))
	for _, s := range cfg.Sleeves {
		out = append(out, risk.SleeveState{
			SleeveID:      s.SleeveID,
			EquityUSD:     s.CapitalAllocUSD,
			PeakEquityUSD: s.CapitalAllocUSD,
		})
	}
	return out
}

// mergeSleeveStates takes restored states for sleeves that are still configured
func mergeSleeveStates(fresh, restored []risk.SleeveState) []risk.SleeveState {
	byID := make(map[risk.SleeveID]risk.SleeveState, len(restored))
	for _, s := range restored {
		byID[s.SleeveID] = s
	}
	out := make([]risk.SleeveState, len(fresh))
	for i, s := range fresh {
		if r, ok := byID[s.SleeveID]; ok {
			out[i] = r
			continue
		}
		out[i] = s
	}
	return out
}

func (e *engine) tickInput(now time.Time, histories map[strategy.FutureInstrument]strategy.InstrumentHistory) execution.TickInput {
	macro := e.macro
	macro.AsOf = now
	return execution.TickInput{
		Portfolio: risk.PortfolioState{
			CashUSD:       e.equityUSD,
			PeakEquityUSD: e.equityUSD,
		},
		Margin:    risk.MarginState{EquityUSD: e.equityUSD},
		Vol:       defaultVolRegime,
		Histories: histories,
		Macro:     macro,
		EURPerUSD: e.eurPerUSD,
	}
}

func (e *engine) saveState(lastTick time.Time) error {
	if e.store == nil {
		return nil
	}
	return e.store.Save(state.SessionSnapshot{
		LastTick:               lastTick,
		PortfolioPeakEquityUSD: e.session.Kernel().PortfolioPeakEquity(),
		Sleeves:                e.session.SleeveStates(),
		Positions:              state.PositionsBySymbol(e.session.Positions()),
	})
}

func (e *engine) close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			fmt.Printf("close: %v\n", err)
		}
	}
	e.closers = nil
}
