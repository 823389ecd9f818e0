package logger

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("test", &buf)
	l.now = func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

	l.Info("tick %d", 1)
	l.Order("%s %d %s", "Buy", 3, "MES")
	l.LogInvariantViolation("signal", "trend_score", math.NaN(), 0)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[2025-03-14 09:30:00] [INFO] tick 1", lines[0])
	assert.Equal(t, "[2025-03-14 09:30:00] [ORDER] Buy 3 MES", lines[1])
	assert.Contains(t, lines[2], "[WARN] invariant violation in signal: trend_score=NaN replaced with 0")
}

func TestLogger_FileSession(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(dir, "heartbeat")
	require.NoError(t, err)

	l.Warning("gap detected")
	path := l.GetLogPath()
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "ENGINE SESSION STARTED: heartbeat")
	assert.Contains(t, content, "[WARN] gap detected")
	assert.Contains(t, content, "ENGINE SESSION ENDED")
}

func TestDiscard_NoFile(t *testing.T) {
	l := Discard()
	l.Error("ignored")
	assert.Equal(t, "", l.GetLogPath())
	assert.NoError(t, l.Close())
}
