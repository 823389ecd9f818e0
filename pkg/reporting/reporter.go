package reporting

import (
	"io"
	"os"
)

// DefaultReporter implements ConsoleReporter, FileReporter and PathManager
type DefaultReporter struct {
	*DefaultConsoleReporter
	csv   *DefaultCSVReporter
	excel *DefaultExcelReporter
	paths *DefaultPathManager
}

// NewDefaultReporter creates a reporter printing to stdout
func NewDefaultReporter() *DefaultReporter {
	return NewReporter(os.Stdout)
}

// NewReporter creates a reporter printing tables to w
func NewReporter(w io.Writer) *DefaultReporter {
	return &DefaultReporter{
		DefaultConsoleReporter: NewConsoleReporter(w),
		csv:                    NewDefaultCSVReporter(),
		excel:                  NewDefaultExcelReporter(),
		paths:                  NewDefaultPathManager(),
	}
}

func (r *DefaultReporter) WriteJournalCSV(entries []JournalEntry, path string) error {
	return r.csv.WriteJournalCSV(entries, path)
}

func (r *DefaultReporter) WriteJournalXLSX(entries []JournalEntry, path string) error {
	return r.excel.WriteJournalXLSX(entries, path)
}

func (r *DefaultReporter) WriteJSON(v interface{}, path string) error {
	return WriteJSON(v, path)
}

func (r *DefaultReporter) GetDefaultOutputDir(profile string) string {
	return r.paths.GetDefaultOutputDir(profile)
}

func (r *DefaultReporter) EnsureDirectoryExists(path string) error {
	return r.paths.EnsureDirectoryExists(path)
}

var (
	_ ConsoleReporter = (*DefaultReporter)(nil)
	_ FileReporter    = (*DefaultReporter)(nil)
	_ PathManager     = (*DefaultReporter)(nil)
)

// Journal accumulates heartbeat entries across ticks of one run
type Journal struct {
	entries []JournalEntry
}

// Add appends an entry
func (j *Journal) Add(e JournalEntry) {
	j.entries = append(j.entries, e)
}

// Entries returns the recorded entries
func (j *Journal) Entries() []JournalEntry {
	return j.entries
}

// Len returns the number of recorded heartbeats
func (j *Journal) Len() int {
	return len(j.entries)
}
