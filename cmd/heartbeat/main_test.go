package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/config"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/execution"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/notifications"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/risk"
)

// sandbox points every output of the binary into a temp dir
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for key, val := range map[string]string{
		"RISK_PROFILE":              "starter_10k",
		"RISK_PROFILE_FILE":         "",
		"HEARTBEAT_LOG_DIR":         filepath.Join(dir, "heartbeats"),
		"ORDER_LOG_PATH":            filepath.Join(dir, "orders.jsonl"),
		"STATE_DIR":                 filepath.Join(dir, "state"),
		"HEARTBEAT_MAX_GAP_SECONDS": "",
		"HEARTBEAT_BATCH_SIZE":      "",
		"METRICS_ADDR":              "",
		"TELEGRAM_TOKEN":            "",
		"TELEGRAM_CHAT_ID":          "",
		"EUR_PER_USD":               "",
		"MAX_SLEEVE_RISK_EUR":       "",
	} {
		t.Setenv(key, val)
	}
	return dir
}

func baseArgs(dir string) []string {
	return []string{"-env", filepath.Join(dir, "none.env"), "-no-emojis", "-start", "2025-06-30T21:00:00Z"}
}

func TestRun_Synthetic(t *testing.T) {
	dir := sandbox(t)
	xlsx := filepath.Join(dir, "journal.xlsx")

	var out bytes.Buffer
	args := append(baseArgs(dir), "-ticks", "3", "-xlsx", xlsx)
	require.NoError(t, run(args, &out))

	text := out.String()
	assert.Contains(t, text, "Profile starter_10k, 3 tick(s), synthetic data")
	assert.Contains(t, text, "Tick 3 at 2025-07-02 21:00")
	assert.Contains(t, text, "RISK ENVELOPES")
	assert.Contains(t, text, "3 heartbeat(s) done, 0 delivery error(s)")

	_, err := os.Stat(xlsx)
	assert.NoError(t, err)
	// high-water marks stay in memory unless -state is given
	_, err = os.Stat(filepath.Join(dir, "state"))
	assert.True(t, os.IsNotExist(err))

	// one daily file per simulated heartbeat day
	for _, day := range []string{"20250630", "20250701", "20250702"} {
		raw, err := os.ReadFile(filepath.Join(dir, "heartbeats", "heartbeat-"+day+".jsonl"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], `"engine_health":"Healthy"`)
	}
}

func TestRun_RestoresState(t *testing.T) {
	dir := sandbox(t)
	args := append(baseArgs(dir), "-tables=false", "-state")

	require.NoError(t, run(args, &bytes.Buffer{}))
	first, err := os.ReadFile(filepath.Join(dir, "state", "starter_10k_session.json"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(args, &out))
	assert.NotContains(t, out.String(), "RISK ENVELOPES")

	_, err = os.Stat(filepath.Join(dir, "state", "starter_10k_session_backup.json"))
	assert.NoError(t, err, "second save keeps the first snapshot as backup")
	assert.NotEmpty(t, first)
}

func TestRun_KillOnDrawdown(t *testing.T) {
	dir := sandbox(t)
	var out bytes.Buffer

	// 7500 against a 10000 peak is a -25% drawdown: kill
	args := append(baseArgs(dir), "-equity", "7500", "-csv", filepath.Join(dir, "journal.csv"))
	require.NoError(t, run(args, &out))

	raw, err := os.ReadFile(filepath.Join(dir, "journal.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Kill")
	assert.Contains(t, out.String(), "0 order(s)")
}

func writeDailyCSV(t *testing.T, path string, end time.Time, n int, base float64) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	for i := 0; i < n; i++ {
		day := end.AddDate(0, 0, i-n+1)
		c := base * (1 + 0.001*float64(i))
		fmt.Fprintf(&b, "%s,%.4f,%.4f,%.4f,%.4f,1000\n", day.Format("2006-01-02"), c, c*1.01, c*0.99, c)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestRun_CSV(t *testing.T) {
	dir := sandbox(t)
	root := filepath.Join(dir, "data")
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	writeDailyCSV(t, filepath.Join(root, "MES.csv"), end, 260, 5000)
	writeDailyCSV(t, filepath.Join(root, "6E_daily.csv"), end, 50, 1.08)

	var out bytes.Buffer
	args := append(baseArgs(dir), "-data", "csv", "-data-root", root, "-state=false")
	require.NoError(t, run(args, &out))

	text := out.String()
	assert.Contains(t, text, "MNQ skipped")
	assert.Contains(t, text, "6E skipped")
	assert.Contains(t, text, "1 heartbeat(s) done")
}

func TestRun_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad data source", []string{"-data", "feed"}},
		{"zero ticks", []string{"-ticks", "0"}},
		{"negative interval", []string{"-interval", "-1h"}},
		{"csv without root", []string{"-data", "csv", "-data-root", "/does/not/exist"}},
		{"bad start", []string{"-start", "yesterday"}},
		{"unknown flag", []string{"-frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := sandbox(t)
			args := append([]string{"-env", filepath.Join(dir, "none.env")}, tt.args...)
			assert.Error(t, run(args, &bytes.Buffer{}))
		})
	}
}

func TestRun_VersionAndHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.Contains(t, out.String(), "heartbeat v")

	out.Reset()
	require.NoError(t, run([]string{"-help"}, &out))
	assert.Contains(t, out.String(), "EXAMPLES:")
	assert.Contains(t, out.String(), "-ticks")
}

func TestMergeSleeveStates(t *testing.T) {
	fresh := initialSleeveStates(risk.Starter10kConfig())
	restored := []risk.SleeveState{
		{SleeveID: risk.SleeveMicroFuturesMacroTrend, EquityUSD: 4_500, PeakEquityUSD: 5_200, OpenPositions: 2},
	}

	merged := mergeSleeveStates(fresh, restored)
	require.Len(t, merged, len(fresh))
	for _, s := range merged {
		if s.SleeveID == risk.SleeveMicroFuturesMacroTrend {
			assert.Equal(t, 5_200.0, s.PeakEquityUSD)
			continue
		}
		assert.Equal(t, s.EquityUSD, s.PeakEquityUSD)
	}
}

func TestHeartbeatSink_Batching(t *testing.T) {
	sandbox(t)
	t.Setenv("HEARTBEAT_BATCH_SIZE", "4")

	e := &engine{}
	sink, err := e.heartbeatSink(config.Load())
	require.NoError(t, err)
	defer e.close()

	_, ok := sink.(*execution.BatchingHeartbeatLogger)
	assert.True(t, ok)
	assert.Len(t, e.closers, 1, "file logger is closed with the engine")
}

func TestHeartbeatSink_Stdout(t *testing.T) {
	sandbox(t)
	t.Setenv("HEARTBEAT_LOG_DIR", heartbeatLogToStdout)

	e := &engine{}
	sink, err := e.heartbeatSink(config.Load())
	require.NoError(t, err)

	_, ok := sink.(*execution.StdoutHeartbeatLogger)
	assert.True(t, ok)
	assert.Empty(t, e.closers)
}

func TestNotifierFor(t *testing.T) {
	sandbox(t)
	cfg := config.Load()
	assert.Nil(t, notifierFor(cfg))

	cfg.Notifications.TelegramToken = "tok"
	cfg.Notifications.TelegramChatID = "42"
	assert.IsType(t, &notifications.GuardedNotifier{}, notifierFor(cfg))
}
