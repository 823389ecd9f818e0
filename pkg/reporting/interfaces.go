// Package reporting renders heartbeat results for operators: console tables,
// an xlsx or csv journal and JSON snapshots.
package reporting

import (
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/execution"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/monitoring"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintEnvelopes(envelopes []risk.SleeveRiskEnvelope)
	PrintPlan(plan strategy.FuturesSleevePlan)
	PrintOrders(orders []strategy.EngineOrder)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteJournalCSV(entries []JournalEntry, path string) error
	WriteJournalXLSX(entries []JournalEntry, path string) error
	WriteJSON(v interface{}, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(profile string) string
	EnsureDirectoryExists(path string) error
}

// JournalEntry is one heartbeat as recorded in the journal
type JournalEntry struct {
	Time       time.Time
	Profile    string
	Health     monitoring.EngineHealth
	Envelope   risk.SleeveRiskEnvelope
	Plan       strategy.FuturesSleevePlan
	Orders     []strategy.EngineOrder
	SinkErrors int
}

// NewJournalEntry records a heartbeat result
func NewJournalEntry(ts time.Time, profile string, health monitoring.EngineHealth, result execution.HeartbeatResult) JournalEntry {
	orders := make([]strategy.EngineOrder, len(result.EngineOrders))
	copy(orders, result.EngineOrders)
	return JournalEntry{
		Time:       ts.UTC(),
		Profile:    profile,
		Health:     health,
		Envelope:   result.Envelope,
		Plan:       result.Heartbeat.Plan,
		Orders:     orders,
		SinkErrors: len(result.SinkErrors),
	}
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	NumberStyle   int
	BaseStyle     int
	AlertStyle    int
	OkStyle       int
}
