package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteJournalCSV writes one row per heartbeat. A .xlsx path is delegated
// to the Excel writer.
func (r *DefaultCSVReporter) WriteJournalCSV(entries []JournalEntry, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteJournalXLSX(entries, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"Time_UTC", "Profile", "Health", "Portfolio_State", "Portfolio_Halt", "Sleeve_Halt",
		"Max_Position_USD", "Exposure_Left_USD", "Margin_Left_USD",
		"Risk_EUR", "Risk_Cap_EUR", "Sanity", "Orders", "Sink_Errors",
	}); err != nil {
		return err
	}

	for _, e := range entries {
		env := e.Envelope
		if err := w.Write([]string{
			e.Time.Format(journalTimeFormat),
			e.Profile,
			e.Health.String(),
			env.PortfolioRiskState.String(),
			env.PortfolioHalt.String(),
			env.SleeveHalt.String(),
			formatFloat(env.MaxPositionSizeUSD),
			formatFloat(env.ExposureRemainingUSD),
			formatFloat(env.MarginRemainingUSD),
			formatFloat(e.Plan.Aggregate.TotalRiskEUR),
			formatFloat(e.Plan.MaxSleeveRiskEUR),
			e.Plan.Sanity.String(),
			strconv.Itoa(len(e.Orders)),
			strconv.Itoa(e.SinkErrors),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteJournalCSV is a convenience function using the default reporter
func WriteJournalCSV(entries []JournalEntry, path string) error {
	return NewDefaultCSVReporter().WriteJournalCSV(entries, path)
}
