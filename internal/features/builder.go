// Package features derives the daily feature bars read by the macro futures
// sleeve from plain daily OHLCV.
package features

import (
	"fmt"
	"sort"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/indicators"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// Feature windows in trading days
const (
	ATRPeriod     = 14
	ChannelPeriod = 50
	ShortWindow   = 20
	MediumWindow  = 60
	LongWindow    = 120
	WarmupBars    = LongWindow + 1
	RequiredOHLCV = WarmupBars + strategy.MinHistoryBars - 1
)

// Builder turns OHLCV into feature bars for one instrument at a time
type Builder struct {
	atr     *indicators.ATR
	channel *indicators.CloseChannel
	ret20   *indicators.RateOfChange
	ret60   *indicators.RateOfChange
	ret120  *indicators.RateOfChange
	vol20   *indicators.LogReturnVol
	vol60   *indicators.LogReturnVol
	vol120  *indicators.LogReturnVol
}

func NewBuilder() *Builder {
	return &Builder{
		atr:     indicators.NewATR(ATRPeriod),
		channel: indicators.NewCloseChannel(ChannelPeriod),
		ret20:   indicators.NewRateOfChange(ShortWindow),
		ret60:   indicators.NewRateOfChange(MediumWindow),
		ret120:  indicators.NewRateOfChange(LongWindow),
		vol20:   indicators.NewLogReturnVol(ShortWindow),
		vol60:   indicators.NewLogReturnVol(MediumWindow),
		vol120:  indicators.NewLogReturnVol(LongWindow),
	}
}

func (b *Builder) all() []indicators.StreamingIndicator {
	return []indicators.StreamingIndicator{b.atr, b.channel, b.ret20, b.ret60, b.ret120, b.vol20, b.vol60, b.vol120}
}

// Build sorts bars by time and emits one feature bar per input bar once every
// feature is warm. carry is attached to every bar of a currency future and
// ignored otherwise.
func (b *Builder) Build(inst strategy.FutureInstrument, bars []types.OHLCV, carry *strategy.FxCarryFeatures) (strategy.InstrumentHistory, error) {
	for _, ind := range b.all() {
		ind.ResetState()
	}

	hist := strategy.InstrumentHistory{Instrument: inst}
	if len(bars) < WarmupBars {
		return hist, errors.NewEngineError(errors.ErrorCategoryData, "FeatureBuilder", "Build",
			fmt.Sprintf("%s: %d bars, need at least %d", inst, len(bars), WarmupBars))
	}

	sorted := make([]types.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	hist.Bars = make([]strategy.DailyFeatureBar, 0, len(sorted)-WarmupBars+1)
	for _, bar := range sorted {
		atr, okATR := b.atr.Update(bar)
		_, okCh := b.channel.Update(bar)
		r20, ok20 := b.ret20.Update(bar)
		r60, ok60 := b.ret60.Update(bar)
		r120, ok120 := b.ret120.Update(bar)
		v20, okV20 := b.vol20.Update(bar)
		v60, okV60 := b.vol60.Update(bar)
		v120, okV120 := b.vol120.Update(bar)

		if !(okATR && okCh && ok20 && ok60 && ok120 && okV20 && okV60 && okV120) {
			continue
		}

		upper, lower := b.channel.Channel()
		fb := strategy.DailyFeatureBar{
			OHLCV:           bar,
			ATR14:           atr,
			Ret20d:          r20,
			Ret60d:          r60,
			Ret120d:         r120,
			Vol20d:          v20,
			Vol60d:          v60,
			Vol120d:         v120,
			HighestClose50d: upper,
			LowestClose50d:  lower,
		}
		if inst.IsFX() && carry != nil {
			c := *carry
			fb.FxCarry = &c
		}
		hist.Bars = append(hist.Bars, fb)
	}
	return hist, nil
}

// BuildAll builds histories for every instrument that has bars
func BuildAll(bars map[strategy.FutureInstrument][]types.OHLCV, carry *strategy.FxCarryFeatures) (map[strategy.FutureInstrument]strategy.InstrumentHistory, error) {
	b := NewBuilder()
	out := make(map[strategy.FutureInstrument]strategy.InstrumentHistory, len(bars))
	for _, inst := range strategy.AllInstruments() {
		series, ok := bars[inst]
		if !ok {
			continue
		}
		hist, err := b.Build(inst, series, carry)
		if err != nil {
			return nil, err
		}
		out[inst] = hist
	}
	return out, nil
}
