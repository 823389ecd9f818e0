package reporting

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// DefaultConsoleReporter renders heartbeat results as tables
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a console reporter writing to stdout
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return NewConsoleReporter(os.Stdout)
}

// NewConsoleReporter creates a console reporter writing to w
func NewConsoleReporter(w io.Writer) *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: w}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// PrintEnvelopes prints one row per sleeve envelope
func (r *DefaultConsoleReporter) PrintEnvelopes(envelopes []risk.SleeveRiskEnvelope) {
	t := r.newTable("RISK ENVELOPES")
	t.AppendHeader(table.Row{"Sleeve", "Portfolio", "Sleeve Halt", "Max Pos $", "Slots", "Exposure $", "Margin $", "Vol x", "Lev x"})
	for _, env := range envelopes {
		t.AppendRow(table.Row{
			env.SleeveID.String(),
			env.PortfolioRiskState.String(),
			env.SleeveHalt.String(),
			fmt.Sprintf("%.2f", env.MaxPositionSizeUSD),
			env.MaxConcurrentPositions,
			fmt.Sprintf("%.2f", env.ExposureRemainingUSD),
			fmt.Sprintf("%.2f", env.MarginRemainingUSD),
			fmt.Sprintf("%.2f", env.VolatilityRegimeScalar),
			fmt.Sprintf("%.2f", env.LeverageScalar),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

// PrintPlan prints the signals, the contract targets and the aggregate risk
func (r *DefaultConsoleReporter) PrintPlan(plan strategy.FuturesSleevePlan) {
	signals := r.newTable("SIGNALS")
	signals.AppendHeader(table.Row{"Instrument", "Reason", "Trend", "Carry", "Effective", "Conviction", "Dir"})
	for _, s := range plan.Signals {
		signals.AppendRow(table.Row{
			s.Instrument.String(),
			s.Reason.String(),
			fmt.Sprintf("%+.3f", s.Raw.TrendScore),
			fmt.Sprintf("%+.3f", s.Raw.CarryScore),
			fmt.Sprintf("%+.3f", s.Final.EffectiveScore),
			fmt.Sprintf("%.3f", s.Final.Conviction),
			s.Final.Direction,
		})
	}
	signals.Render()

	contracts := r.newTable("CONTRACTS")
	contracts.AppendHeader(table.Row{"Instrument", "Target", "Risk/Contract EUR", "Risk EUR"})
	for _, pr := range plan.Risks {
		contracts.AppendRow(table.Row{
			pr.Instrument.String(),
			pr.TargetContracts,
			fmt.Sprintf("%.2f", pr.RiskPerContractEUR),
			fmt.Sprintf("%.2f", pr.TotalRiskEUR),
		})
	}
	agg := plan.Aggregate
	contracts.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("%d (%d abs)", agg.TotalSignedContracts, agg.TotalAbsContracts),
		fmt.Sprintf("cap %.2f", plan.MaxSleeveRiskEUR),
		fmt.Sprintf("%.2f %s", agg.TotalRiskEUR, plan.Sanity),
	})
	contracts.Render()
}

// PrintOrders prints the orders of a heartbeat
func (r *DefaultConsoleReporter) PrintOrders(orders []strategy.EngineOrder) {
	if len(orders) == 0 {
		fmt.Fprintln(r.out, "No orders: positions already at target")
		return
	}
	t := r.newTable("ORDERS")
	t.AppendHeader(table.Row{"Symbol", "Side", "Qty", "Venue", "Client Order ID"})
	for _, o := range orders {
		t.AppendRow(table.Row{o.Symbol, string(o.Side), o.Quantity, o.Venue, o.ClientOrderID})
	}
	t.Render()
}
