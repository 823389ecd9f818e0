package execution

import (
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/notifications"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// SessionConfig wires the collaborators of a Session
type SessionConfig struct {
	Kernel     *risk.Kernel
	Sleeve     *strategy.MacroFuturesSleeve
	Supervisor *monitoring.HeartbeatSupervisor
	Orders     OrderSink
	Heartbeats HeartbeatLogSink
	Notifier   notifications.Notifier // optional
	Logger     *logger.Logger

	// Sleeves are the live states of every configured sleeve
	Sleeves   []risk.SleeveState
	Positions map[strategy.FutureInstrument]int

	Budget           strategy.FuturesRiskBudget
	MaxSleeveRiskEUR float64

	// AssumeFills moves each instrument to its target once its order is
	// accepted by the order sink. Used when no broker reports fills back.
	AssumeFills bool
}

// TickInput is the market and account snapshot of one tick
type TickInput struct {
	Portfolio risk.PortfolioState
	Margin    risk.MarginState
	Vol       risk.VolatilityRegime
	Histories map[strategy.FutureInstrument]strategy.InstrumentHistory
	Macro     strategy.MacroScalars
	EURPerUSD float64
}

// Session runs heartbeats against long-lived kernel and sleeve state. Ticks
// are serialized; a tick never observes another tick's partial updates.
type Session struct {
	mu sync.Mutex

	kernel     *risk.Kernel
	sleeve     *strategy.MacroFuturesSleeve
	supervisor *monitoring.HeartbeatSupervisor
	health     *monitoring.HealthChecker
	orders     OrderSink
	heartbeats HeartbeatLogSink
	notifier   notifications.Notifier
	logger     *logger.Logger
	stats      *errors.ErrorStats

	sleeves   []risk.SleeveState
	positions map[strategy.FutureInstrument]int

	budget           strategy.FuturesRiskBudget
	maxSleeveRiskEUR float64
	assumeFills      bool
	ticks            int
}

// NewSession validates the wiring and creates a session
func NewSession(cfg SessionConfig) (*Session, error) {
	switch {
	case cfg.Kernel == nil:
		return nil, errors.NewConfigurationError("Session", "New", "kernel is required")
	case cfg.Sleeve == nil:
		return nil, errors.NewConfigurationError("Session", "New", "sleeve is required")
	case cfg.Supervisor == nil:
		return nil, errors.NewConfigurationError("Session", "New", "supervisor is required")
	case cfg.Orders == nil:
		return nil, errors.NewConfigurationError("Session", "New", "order sink is required")
	case cfg.Heartbeats == nil:
		return nil, errors.NewConfigurationError("Session", "New", "heartbeat log sink is required")
	}

	hasMacroSleeve := false
	for _, s := range cfg.Sleeves {
		if s.SleeveID == risk.SleeveMicroFuturesMacroTrend {
			hasMacroSleeve = true
		}
	}
	if !hasMacroSleeve {
		return nil, errors.NewConfigurationError("Session", "New", "sleeve states must include MicroFuturesMacroTrend")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	positions := make(map[strategy.FutureInstrument]int, len(cfg.Positions))
	for inst, n := range cfg.Positions {
		if n != 0 {
			positions[inst] = n
		}
	}
	sleeves := make([]risk.SleeveState, len(cfg.Sleeves))
	copy(sleeves, cfg.Sleeves)

	return &Session{
		kernel:           cfg.Kernel,
		sleeve:           cfg.Sleeve,
		supervisor:       cfg.Supervisor,
		health:           monitoring.NewHealthChecker(cfg.Supervisor),
		orders:           cfg.Orders,
		heartbeats:       cfg.Heartbeats,
		notifier:         cfg.Notifier,
		logger:           log,
		stats:            errors.NewErrorStats(50),
		sleeves:          sleeves,
		positions:        positions,
		budget:           cfg.Budget,
		maxSleeveRiskEUR: cfg.MaxSleeveRiskEUR,
		assumeFills:      cfg.AssumeFills,
	}, nil
}

// Tick runs one heartbeat. Delivery failures are logged and counted but do
// not fail the tick; kernel and wiring failures do.
func (s *Session) Tick(now time.Time, in TickInput) (HeartbeatResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncOpenPositions()
	inputs := HeartbeatInputs{
		Portfolio:        in.Portfolio,
		Sleeves:          s.sleeves,
		Margin:           in.Margin,
		Vol:              in.Vol,
		Histories:        in.Histories,
		Macro:            in.Macro,
		CurrentPositions: s.positionsCopy(),
		EURPerUSD:        in.EURPerUSD,
		Budget:           s.budget,
		MaxSleeveRiskEUR: s.maxSleeveRiskEUR,
	}

	result, err := RunMacroFuturesHeartbeatWithLogging(now, s.supervisor, s.kernel, s.sleeve, inputs, s.orders, s.heartbeats, s.logger)
	if err != nil {
		s.recordError(err, "tick")
		return result, err
	}
	s.ticks++

	for _, err := range result.OrderErrors {
		s.recordError(err, "order_sink")
	}
	for _, err := range result.LogErrors {
		s.recordError(err, "heartbeat_log")
	}
	if len(result.EngineOrders) > 0 {
		s.health.RecordOrder(now)
	}

	if s.supervisor.Health() == monitoring.EngineDegraded {
		s.alert(notifications.LevelWarning, fmt.Sprintf("Heartbeat gap %s exceeded %s; sizing suppressed, flattening",
			s.supervisor.LastGap(), s.supervisor.MaxGap()))
	}
	if result.Envelope.PortfolioHalt.Active() || result.Envelope.SleeveHalt.Active() {
		s.alert(notifications.LevelError, fmt.Sprintf("Risk halt: portfolio=%s sleeve=%s",
			result.Envelope.PortfolioHalt, result.Envelope.SleeveHalt))
	}
	if result.Heartbeat.Plan.Sanity == strategy.SanityExceedsCap {
		s.alert(notifications.LevelWarning, fmt.Sprintf("Sleeve risk %.2f EUR exceeds cap %.2f EUR",
			result.Heartbeat.Plan.Aggregate.TotalRiskEUR, s.maxSleeveRiskEUR))
	}

	if s.assumeFills {
		s.applyFills(result)
	}

	return result, nil
}

// applyFills moves each instrument whose order the sink accepted to its
// target. A rejected order leaves its instrument untouched so the next tick
// reconciles it again; heartbeat log failures play no part.
func (s *Session) applyFills(result HeartbeatResult) {
	delivered := result.DeliveredInstruments()
	for _, oi := range result.Heartbeat.OrderIntents {
		if oi.DeltaContracts != 0 && !delivered[oi.Instrument] {
			continue
		}
		if oi.TargetContracts == 0 {
			delete(s.positions, oi.Instrument)
		} else {
			s.positions[oi.Instrument] = oi.TargetContracts
		}
	}
	s.syncOpenPositions()
}

// syncOpenPositions keeps the macro sleeve's open position count in line
// with the positions the session tracks.
func (s *Session) syncOpenPositions() {
	open := 0
	for _, n := range s.positions {
		if n != 0 {
			open++
		}
	}
	for i := range s.sleeves {
		if s.sleeves[i].SleeveID == risk.SleeveMicroFuturesMacroTrend {
			s.sleeves[i].OpenPositions = open
		}
	}
}

func (s *Session) positionsCopy() map[strategy.FutureInstrument]int {
	out := make(map[strategy.FutureInstrument]int, len(s.positions))
	for k, v := range s.positions {
		out[k] = v
	}
	return out
}

func (s *Session) recordError(err error, kind string) {
	monitoring.RecordError(kind)
	s.health.RecordError(err.Error())
	if ee, ok := err.(*errors.EngineError); ok {
		s.stats.RecordError(ee)
		return
	}
	s.stats.RecordError(errors.WrapError(err, errors.ErrorCategoryInternal, "Session", kind))
}

func (s *Session) alert(level, msg string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendAlert(level, msg); err != nil {
		s.logger.LogError("send alert", err)
		s.recordError(errors.NewSinkError("Notifier", "SendAlert", err), "notify")
	}
}

// SetPositions replaces tracked positions, e.g. after a broker reconciliation
func (s *Session) SetPositions(positions map[strategy.FutureInstrument]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = make(map[strategy.FutureInstrument]int, len(positions))
	for inst, n := range positions {
		if n != 0 {
			s.positions[inst] = n
		}
	}
}

// Positions returns the tracked contract positions
func (s *Session) Positions() map[strategy.FutureInstrument]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionsCopy()
}

// SleeveStates returns a copy of the live sleeve states
func (s *Session) SleeveStates() []risk.SleeveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]risk.SleeveState, len(s.sleeves))
	copy(out, s.sleeves)
	return out
}

// Ticks is the number of successful heartbeats
func (s *Session) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Session) Kernel() *risk.Kernel { return s.kernel }

func (s *Session) ErrorStats() *errors.ErrorStats { return s.stats }

func (s *Session) HealthChecker() *monitoring.HealthChecker { return s.health }

// Close flushes the heartbeat log
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeats.Flush()
}
