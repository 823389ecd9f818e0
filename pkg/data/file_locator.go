package data

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileLocator looks for daily bar files by symbol
type DefaultFileLocator struct{}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{}
}

// CandidatePaths lists the locations tried for a symbol, in order:
// {root}/{SYMBOL}.csv, {root}/{SYMBOL}_daily.csv, {root}/{SYMBOL}/1d/candles.csv
func (f *DefaultFileLocator) CandidatePaths(dataRoot, symbol string) []string {
	symbol = strings.ToUpper(symbol)
	return []string{
		filepath.Join(dataRoot, symbol+".csv"),
		filepath.Join(dataRoot, symbol+"_daily.csv"),
		filepath.Join(dataRoot, symbol, "1d", "candles.csv"),
	}
}

// FindDataFile returns the first existing candidate or "" when none exists
func (f *DefaultFileLocator) FindDataFile(dataRoot, symbol string) string {
	for _, path := range f.CandidatePaths(dataRoot, symbol) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
