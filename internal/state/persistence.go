package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/logger"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// SnapshotVersion is written into every saved snapshot
const SnapshotVersion = "1.0.0"

// MaxSnapshotAge is how old a snapshot may be before it is ignored on load
const MaxSnapshotAge = 7 * 24 * time.Hour

// SessionSnapshot is the recoverable state of an engine session between runs
type SessionSnapshot struct {
	Version     string    `json:"version"`
	Profile     string    `json:"profile"`
	LastUpdated time.Time `json:"last_updated"`
	LastTick    time.Time `json:"last_tick"`

	PortfolioPeakEquityUSD float64            `json:"portfolio_peak_equity_usd"`
	Sleeves                []risk.SleeveState `json:"sleeves"`
	Positions              map[string]int     `json:"positions"` // contracts by symbol
}

// PositionsByInstrument converts the persisted positions back to instruments.
// Unknown symbols are skipped.
func (s *SessionSnapshot) PositionsByInstrument() map[strategy.FutureInstrument]int {
	out := make(map[strategy.FutureInstrument]int, len(s.Positions))
	for sym, n := range s.Positions {
		inst, err := strategy.ParseInstrument(sym)
		if err != nil {
			continue
		}
		out[inst] = n
	}
	return out
}

// PositionsBySymbol converts live positions for persistence, dropping flat ones
func PositionsBySymbol(positions map[strategy.FutureInstrument]int) map[string]int {
	out := make(map[string]int, len(positions))
	for inst, n := range positions {
		if n != 0 {
			out[inst.Spec().Symbol] = n
		}
	}
	return out
}

// Store saves and loads session snapshots for one risk profile
type Store struct {
	logger   *logger.Logger
	stateDir string
	profile  string
	mu       sync.Mutex
	now      func() time.Time
}

// NewStore creates a snapshot store rooted at stateDir
func NewStore(log *logger.Logger, stateDir, profile string) *Store {
	if log == nil {
		log = logger.Discard()
	}
	return &Store{logger: log, stateDir: stateDir, profile: profile, now: time.Now}
}

func (s *Store) statePath() string {
	return filepath.Join(s.stateDir, fmt.Sprintf("%s_session.json", s.profile))
}

func (s *Store) backupPath() string {
	return filepath.Join(s.stateDir, fmt.Sprintf("%s_session_backup.json", s.profile))
}

// Load reads the last snapshot. It returns nil without error when there is
// no usable snapshot, so callers start clean.
func (s *Store) Load() (*SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.statePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Info("No session snapshot at %s, starting clean", path)
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session snapshot: %w", err)
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse session snapshot: %w", err)
	}

	if err := s.validate(&snap); err != nil {
		s.logger.Warning("Session snapshot ignored: %v", err)
		return nil, nil
	}

	s.logger.Info("Session snapshot loaded from %s", path)
	return &snap, nil
}

// Save writes the snapshot atomically and keeps the previous one as backup
func (s *Store) Save(snap SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	snap.Version = SnapshotVersion
	snap.Profile = s.profile
	snap.LastUpdated = s.now().UTC()

	path := s.statePath()
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, s.backupPath()); err != nil {
			s.logger.Warning("Failed to back up session snapshot: %v", err)
		}
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move snapshot: %w", err)
	}
	return nil
}

func (s *Store) validate(snap *SessionSnapshot) error {
	if snap.Version == "" {
		return fmt.Errorf("snapshot version is empty")
	}
	if snap.Profile != s.profile {
		return fmt.Errorf("profile mismatch: expected %s, got %s", s.profile, snap.Profile)
	}
	if s.now().Sub(snap.LastUpdated) > MaxSnapshotAge {
		return fmt.Errorf("snapshot is too old: %v", snap.LastUpdated)
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
