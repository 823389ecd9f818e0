package main

import (
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/cmd/common"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/features"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/data"
)

// historySource returns the feature histories visible at asOf
type historySource func(asOf time.Time) (map[strategy.FutureInstrument]strategy.InstrumentHistory, error)

func newHistorySource(opts *options, carry *strategy.FxCarryFeatures, log *logger.Logger, console *common.Logger) historySource {
	if opts.dataSource == "csv" {
		return csvHistories(data.NewDataManager(log), opts.dataRoot, carry, console)
	}
	return func(asOf time.Time) (map[strategy.FutureInstrument]strategy.InstrumentHistory, error) {
		return features.SyntheticHistories(asOf, carry)
	}
}

// csvHistories reads each instrument's daily bars up to asOf. An instrument
// without usable bars is left out and so produces no signal.
func csvHistories(dm *data.DataManager, root string, carry *strategy.FxCarryFeatures, console *common.Logger) historySource {
	builder := features.NewBuilder()
	return func(asOf time.Time) (map[strategy.FutureInstrument]strategy.InstrumentHistory, error) {
		out := make(map[strategy.FutureInstrument]strategy.InstrumentHistory, 3)
		for _, inst := range strategy.AllInstruments() {
			bars, err := dm.LoadSymbol(root, inst.Spec().Symbol, asOf)
			if err != nil {
				console.Warn("%s skipped: %v", inst, err)
				continue
			}
			hist, err := builder.Build(inst, bars, carry)
			if err != nil {
				console.Warn("%s skipped: %v", inst, err)
				continue
			}
			out[inst] = hist
		}
		return out, nil
	}
}
