package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// Sheet names of the heartbeat journal workbook
const (
	HeartbeatsSheet = "Heartbeats"
	SignalsSheet    = "Signals"
	OrdersSheet     = "Orders"
)

const journalTimeFormat = "2006-01-02 15:04:05"

// DefaultExcelReporter writes the heartbeat journal workbook
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteJournalXLSX writes one sheet of heartbeats, one of signals and one of orders
func (r *DefaultExcelReporter) WriteJournalXLSX(entries []JournalEntry, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), HeartbeatsSheet)
	if _, err := fx.NewSheet(SignalsSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(OrdersSheet); err != nil {
		return err
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeHeartbeatsSheet(fx, entries, styles); err != nil {
		return err
	}
	if err := r.writeSignalsSheet(fx, entries, styles); err != nil {
		return err
	}
	if err := r.writeOrdersSheet(fx, entries, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	thinBorder := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Dark slate header with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    4, // #,##0.00
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: strPtr("0.000"),
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: thinBorder})
	if err != nil {
		return styles, err
	}

	styles.AlertStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.OkStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: thinBorder,
	})
	return styles, err
}

func strPtr(s string) *string { return &s }

func writeHeaders(fx *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, style)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	fx.SetColWidth(sheet, "A", last, 14)
	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// writeRow writes values from column A with one style per value
func writeRow(fx *excelize.File, sheet string, row int, values []interface{}, styles []int) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		fx.SetCellValue(sheet, cell, v)
		if i < len(styles) {
			fx.SetCellStyle(sheet, cell, cell, styles[i])
		}
	}
}

func (r *DefaultExcelReporter) writeHeartbeatsSheet(fx *excelize.File, entries []JournalEntry, s ExcelStyles) error {
	writeHeaders(fx, HeartbeatsSheet, []string{
		"Time (UTC)", "Profile", "Health", "Portfolio State", "Portfolio Halt", "Sleeve Halt",
		"Max Position $", "Exposure Left $", "Margin Left $", "Vol Scalar", "Lev Scalar",
		"Risk EUR", "Risk Cap EUR", "Sanity", "Orders", "Sink Errors",
	}, s.HeaderStyle)

	for i, e := range entries {
		env := e.Envelope
		haltStyle := s.OkStyle
		if env.AnyHalt() {
			haltStyle = s.AlertStyle
		}
		healthStyle := s.OkStyle
		if e.Health != monitoring.EngineHealthy {
			healthStyle = s.AlertStyle
		}
		sanityStyle := s.OkStyle
		if e.Plan.Sanity != strategy.SanityOk {
			sanityStyle = s.AlertStyle
		}

		writeRow(fx, HeartbeatsSheet, i+2, []interface{}{
			e.Time.Format(journalTimeFormat), e.Profile, e.Health.String(),
			env.PortfolioRiskState.String(), env.PortfolioHalt.String(), env.SleeveHalt.String(),
			env.MaxPositionSizeUSD, env.ExposureRemainingUSD, env.MarginRemainingUSD,
			env.VolatilityRegimeScalar, env.LeverageScalar,
			e.Plan.Aggregate.TotalRiskEUR, e.Plan.MaxSleeveRiskEUR, e.Plan.Sanity.String(),
			len(e.Orders), e.SinkErrors,
		}, []int{
			s.BaseStyle, s.BaseStyle, healthStyle,
			s.BaseStyle, haltStyle, haltStyle,
			s.CurrencyStyle, s.CurrencyStyle, s.CurrencyStyle,
			s.NumberStyle, s.NumberStyle,
			s.CurrencyStyle, s.CurrencyStyle, sanityStyle,
			s.BaseStyle, s.BaseStyle,
		})
	}
	return nil
}

func (r *DefaultExcelReporter) writeSignalsSheet(fx *excelize.File, entries []JournalEntry, s ExcelStyles) error {
	writeHeaders(fx, SignalsSheet, []string{
		"Time (UTC)", "Instrument", "Reason", "Trend", "Carry", "Effective", "Conviction",
		"Direction", "Target Contracts", "Risk EUR",
	}, s.HeaderStyle)

	row := 2
	for _, e := range entries {
		targets := make(map[string][2]float64, len(e.Plan.Risks))
		for _, pr := range e.Plan.Risks {
			targets[pr.Instrument.String()] = [2]float64{float64(pr.TargetContracts), pr.TotalRiskEUR}
		}
		for _, sig := range e.Plan.Signals {
			tr := targets[sig.Instrument.String()]
			writeRow(fx, SignalsSheet, row, []interface{}{
				e.Time.Format(journalTimeFormat), sig.Instrument.String(), sig.Reason.String(),
				sig.Raw.TrendScore, sig.Raw.CarryScore, sig.Final.EffectiveScore, sig.Final.Conviction,
				sig.Final.Direction, int(tr[0]), tr[1],
			}, []int{
				s.BaseStyle, s.BaseStyle, s.BaseStyle,
				s.NumberStyle, s.NumberStyle, s.NumberStyle, s.NumberStyle,
				s.BaseStyle, s.BaseStyle, s.CurrencyStyle,
			})
			row++
		}
	}
	return nil
}

func (r *DefaultExcelReporter) writeOrdersSheet(fx *excelize.File, entries []JournalEntry, s ExcelStyles) error {
	writeHeaders(fx, OrdersSheet, []string{
		"Time (UTC)", "Sleeve", "Symbol", "Venue", "Side", "Quantity", "Client Order ID",
	}, s.HeaderStyle)
	fx.SetColWidth(OrdersSheet, "G", "G", 38)

	row := 2
	for _, e := range entries {
		for _, o := range e.Orders {
			writeRow(fx, OrdersSheet, row, []interface{}{
				e.Time.Format(journalTimeFormat), o.SleeveID.String(), o.Symbol, o.Venue,
				string(o.Side), o.Quantity, o.ClientOrderID,
			}, []int{s.BaseStyle, s.BaseStyle, s.BaseStyle, s.BaseStyle, s.BaseStyle, s.BaseStyle, s.BaseStyle})
			row++
		}
	}
	return nil
}

// WriteJournalXLSX is a convenience function using the default reporter
func WriteJournalXLSX(entries []JournalEntry, path string) error {
	return NewDefaultExcelReporter().WriteJournalXLSX(entries, path)
}
