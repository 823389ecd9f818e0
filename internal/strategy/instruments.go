package strategy

import "fmt"

// FutureInstrument is one of the micro futures traded by the macro sleeve.
// The declaration order is the planning order: headroom and slots are
// consumed in this order every tick.
type FutureInstrument int

const (
	InstrumentMES FutureInstrument = iota
	InstrumentMNQ
	Instrument6E
)

// InstrumentSpec is the static venue metadata of an instrument
type InstrumentSpec struct {
	Symbol string
	Venue  string
}

var instrumentSpecs = map[FutureInstrument]InstrumentSpec{
	InstrumentMES: {Symbol: "MES", Venue: "CME"},
	InstrumentMNQ: {Symbol: "MNQ", Venue: "CME"},
	Instrument6E:  {Symbol: "6E", Venue: "CME"},
}

// AllInstruments returns the instruments in planning order
func AllInstruments() []FutureInstrument {
	return []FutureInstrument{InstrumentMES, InstrumentMNQ, Instrument6E}
}

// Spec returns the symbol and venue of the instrument
func (i FutureInstrument) Spec() InstrumentSpec {
	return instrumentSpecs[i]
}

func (i FutureInstrument) String() string {
	switch i {
	case InstrumentMES:
		return "MES"
	case InstrumentMNQ:
		return "MNQ"
	case Instrument6E:
		return "6E"
	default:
		return fmt.Sprintf("Instrument(%d)", int(i))
	}
}

// IsFX reports whether the instrument is a currency future with carry
func (i FutureInstrument) IsFX() bool {
	return i == Instrument6E
}

// ParseInstrument resolves an instrument from its symbol
func ParseInstrument(symbol string) (FutureInstrument, error) {
	for _, inst := range AllInstruments() {
		if inst.Spec().Symbol == symbol {
			return inst, nil
		}
	}
	return 0, fmt.Errorf("unknown instrument %q", symbol)
}
