package execution

import (
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// HeartbeatInputs is everything one macro futures heartbeat reads
type HeartbeatInputs struct {
	Portfolio risk.PortfolioState
	// Sleeves is the full set of live sleeve states. Peak equity is
	// updated in place by the kernel.
	Sleeves []risk.SleeveState
	Margin  risk.MarginState
	Vol     risk.VolatilityRegime

	Histories        map[strategy.FutureInstrument]strategy.InstrumentHistory
	Macro            strategy.MacroScalars
	CurrentPositions map[strategy.FutureInstrument]int
	EURPerUSD        float64

	Budget           strategy.FuturesRiskBudget
	MaxSleeveRiskEUR float64
}

// HeartbeatResult is the outcome of one heartbeat
type HeartbeatResult struct {
	Envelope     risk.SleeveRiskEnvelope
	Heartbeat    strategy.HeartbeatOutput
	EngineOrders []strategy.EngineOrder
	// Delivered are the orders the order sink accepted
	Delivered []strategy.EngineOrder

	// OrderErrors are order submit and flush failures
	OrderErrors []error
	// LogErrors are heartbeat log failures. They never touch positions.
	LogErrors []error
	// SinkErrors is every delivery failure of the tick, orders first. The
	// heartbeat itself still succeeded.
	SinkErrors []error
}

// DeliveredInstruments reports which instruments had an order accepted
func (r HeartbeatResult) DeliveredInstruments() map[strategy.FutureInstrument]bool {
	out := make(map[strategy.FutureInstrument]bool, len(r.Delivered))
	for _, o := range r.Delivered {
		out[o.Instrument] = true
	}
	return out
}

// sinkError tags err as a delivery failure unless it already is one
func sinkError(component, operation string, err error) error {
	if ee, ok := err.(*errors.EngineError); ok && ee.Category == errors.ErrorCategorySink {
		return ee
	}
	return errors.NewSinkError(component, operation, err)
}

// RunMacroFuturesHeartbeat evaluates the kernel, sizes the macro futures
// sleeve inside its envelope and submits the resulting orders.
func RunMacroFuturesHeartbeat(
	now time.Time,
	kernel risk.RiskKernel,
	sleeve *strategy.MacroFuturesSleeve,
	in HeartbeatInputs,
	health monitoring.EngineHealth,
	sink OrderSink,
	log *logger.Logger,
) (HeartbeatResult, error) {
	if log == nil {
		log = logger.Discard()
	}

	envelopes, err := kernel.Evaluate(now, in.Portfolio, in.Sleeves, in.Margin, in.Vol)
	if err != nil {
		return HeartbeatResult{}, err
	}

	env, ok := findEnvelope(envelopes, risk.SleeveMicroFuturesMacroTrend)
	if !ok {
		return HeartbeatResult{}, errors.NewFatalError("Orchestrator", "RunMacroFuturesHeartbeat",
			"no risk envelope for MicroFuturesMacroTrend").WithContext("envelopes", len(envelopes))
	}
	recordEnvelopes(envelopes)

	ctx := strategy.FuturesSleeveContext{
		AsOf:             in.Macro.AsOf,
		Histories:        in.Histories,
		MacroScalars:     in.Macro,
		RiskEnvelope:     env,
		CurrentPositions: in.CurrentPositions,
		EURPerUSD:        in.EURPerUSD,
		EngineHealth:     health,
	}
	hb := sleeve.RunHeartbeat(ctx, in.Budget, in.MaxSleeveRiskEUR)
	monitoring.RecordPlan(env.SleeveID.String(), hb.Plan.Aggregate.TotalRiskEUR, hb.Plan.Sanity == strategy.SanityExceedsCap)

	orders := sleeve.MapHeartbeatToEngineOrders(risk.SleeveMicroFuturesMacroTrend, hb)
	result := HeartbeatResult{Envelope: env, Heartbeat: hb}

	for i := range orders {
		orders[i].ClientOrderID = uuid.NewString()
		if err := sink.Submit(orders[i]); err != nil {
			log.LogError("submit order "+orders[i].ClientOrderID, err)
			result.OrderErrors = append(result.OrderErrors,
				sinkError("Orchestrator", "Submit", err))
			continue
		}
		result.Delivered = append(result.Delivered, orders[i])
		monitoring.RecordOrder(orders[i].Symbol, string(orders[i].Side), orders[i].Quantity)
		log.Order("%s %s %d %s@%s id=%s", orders[i].SleeveID, orders[i].Side, orders[i].Quantity,
			orders[i].Symbol, orders[i].Venue, orders[i].ClientOrderID)
	}
	if err := sink.Flush(); err != nil {
		log.LogError("flush order sink", err)
		result.OrderErrors = append(result.OrderErrors, sinkError("Orchestrator", "Flush", err))
	}

	result.EngineOrders = orders
	result.SinkErrors = append([]error(nil), result.OrderErrors...)
	return result, nil
}

// RunMacroFuturesHeartbeatWithLogging registers the tick with the
// supervisor, writes a gap event when the engine is degraded, runs the
// heartbeat under the supervisor's health and logs one heartbeat line.
func RunMacroFuturesHeartbeatWithLogging(
	now time.Time,
	supervisor *monitoring.HeartbeatSupervisor,
	kernel risk.RiskKernel,
	sleeve *strategy.MacroFuturesSleeve,
	in HeartbeatInputs,
	sink OrderSink,
	heartbeatLog HeartbeatLogSink,
	log *logger.Logger,
) (HeartbeatResult, error) {
	if log == nil {
		log = logger.Discard()
	}

	health := supervisor.RegisterTick(now)
	monitoring.RecordHeartbeat(health.String())

	var logErrs []error
	if health == monitoring.EngineDegraded {
		log.Warning("heartbeat gap %s exceeds %s", supervisor.LastGap(), supervisor.MaxGap())
		if err := logAt(heartbeatLog, now, EncodeJSON(NewGapEvent(now, health))); err != nil {
			log.LogError("log supervisor event", err)
			logErrs = append(logErrs, sinkError("Orchestrator", "LogGap", err))
		}
	}

	result, err := RunMacroFuturesHeartbeat(now, kernel, sleeve, in, health, sink, log)
	if err != nil {
		return result, err
	}

	if err := logAt(heartbeatLog, now, EncodeJSON(NewHeartbeatLogEvent(now, result, health))); err != nil {
		log.LogError("log heartbeat", err)
		logErrs = append(logErrs, sinkError("Orchestrator", "LogHeartbeat", err))
	}
	log.Heartbeat("%s health=%s risk=%.2f EUR sanity=%s orders=%d",
		result.Envelope.SleeveID, health, result.Heartbeat.Plan.Aggregate.TotalRiskEUR,
		result.Heartbeat.Plan.Sanity, len(result.EngineOrders))

	result.LogErrors = logErrs
	result.SinkErrors = append(result.SinkErrors, logErrs...)
	return result, nil
}

func findEnvelope(envelopes []risk.SleeveRiskEnvelope, id risk.SleeveID) (risk.SleeveRiskEnvelope, bool) {
	for _, e := range envelopes {
		if e.SleeveID == id {
			return e, true
		}
	}
	return risk.SleeveRiskEnvelope{}, false
}

func recordEnvelopes(envelopes []risk.SleeveRiskEnvelope) {
	for i, e := range envelopes {
		monitoring.RecordEnvelope(e.SleeveID.String(), e.MaxPositionSizeUSD, e.ExposureRemainingUSD,
			e.MarginRemainingUSD, e.VolatilityRegimeScalar, e.LeverageScalar)
		monitoring.UpdateHaltState(e.SleeveID.String(), int(e.SleeveHalt))
		if i == 0 {
			monitoring.UpdateHaltState("portfolio", int(e.PortfolioHalt))
		}
	}
}
