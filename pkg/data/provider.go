package data

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/pkg/types"
)

// DataManager combines locating, loading and cleaning daily bars
type DataManager struct {
	provider DataProvider
	filter   *DefaultDataFilter
	locator  FileLocator
}

// NewDataManager creates a data manager reading cached daily CSV files
func NewDataManager(log *logger.Logger) *DataManager {
	return NewDataManagerWithProvider(NewCachedProvider(NewCSVProvider(log), log))
}

// NewDataManagerWithProvider creates a data manager with a custom provider
func NewDataManagerWithProvider(provider DataProvider) *DataManager {
	return &DataManager{
		provider: provider,
		filter:   NewDefaultDataFilter(),
		locator:  NewDefaultFileLocator(),
	}
}

// LoadSymbol finds, loads and cleans the bars of symbol up to asOf. The
// result is sorted, de-duplicated and validated.
func (dm *DataManager) LoadSymbol(dataRoot, symbol string, asOf time.Time) ([]types.OHLCV, error) {
	path := dm.locator.FindDataFile(dataRoot, symbol)
	if path == "" {
		return nil, fmt.Errorf("no data file for %s under %s", symbol, dataRoot)
	}

	bars, err := dm.provider.LoadData(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}

	bars = dm.filter.SortByTimestamp(bars)
	bars = dm.filter.RemoveDuplicates(bars)
	bars = dm.filter.FilterAsOf(bars, asOf)

	if err := dm.provider.ValidateData(bars); err != nil {
		return nil, fmt.Errorf("validate %s: %w", symbol, err)
	}
	return bars, nil
}

func (dm *DataManager) GetProvider() DataProvider { return dm.provider }

func (dm *DataManager) GetFilter() *DefaultDataFilter { return dm.filter }
