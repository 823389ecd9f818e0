package execution

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
)

// HeartbeatLogSink receives one JSON line per heartbeat or supervisor event
type HeartbeatLogSink interface {
	Log(line string) error
	Flush() error
}

// TimedHeartbeatLogSink files each line under the time of the event it
// describes instead of the wall clock.
type TimedHeartbeatLogSink interface {
	HeartbeatLogSink
	LogAt(t time.Time, line string) error
}

// logAt hands line to sink, stamped with t when the sink can use it
func logAt(sink HeartbeatLogSink, t time.Time, line string) error {
	if timed, ok := sink.(TimedHeartbeatLogSink); ok && !t.IsZero() {
		return timed.LogAt(t, line)
	}
	return sink.Log(line)
}

// StdoutHeartbeatLogger writes lines to stdout or any injected writer.
// Every line is flushed as it is written.
type StdoutHeartbeatLogger struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewStdoutHeartbeatLogger() *StdoutHeartbeatLogger {
	return NewWriterHeartbeatLogger(os.Stdout)
}

func NewWriterHeartbeatLogger(w io.Writer) *StdoutHeartbeatLogger {
	return &StdoutHeartbeatLogger{w: bufio.NewWriter(w)}
}

func (l *StdoutHeartbeatLogger) Log(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.WriteString(line + "\n"); err != nil {
		return errors.NewSinkError("StdoutHeartbeatLogger", "Log", err)
	}
	if err := l.w.Flush(); err != nil {
		return errors.NewSinkError("StdoutHeartbeatLogger", "Log", err)
	}
	return nil
}

func (l *StdoutHeartbeatLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return errors.NewSinkError("StdoutHeartbeatLogger", "Flush", err)
	}
	return nil
}

// BatchingHeartbeatLogger buffers lines and forwards them to the inner sink
// once capacity is reached or on Flush.
type BatchingHeartbeatLogger struct {
	mu       sync.Mutex
	inner    HeartbeatLogSink
	buffer   []timedLine
	capacity int
}

// timedLine keeps the event time of a buffered line; zero means unknown
type timedLine struct {
	at   time.Time
	line string
}

func NewBatchingHeartbeatLogger(inner HeartbeatLogSink, capacity int) (*BatchingHeartbeatLogger, error) {
	if capacity <= 0 {
		return nil, errors.NewConfigurationError("BatchingHeartbeatLogger", "New", "capacity must be > 0")
	}
	if inner == nil {
		return nil, errors.NewConfigurationError("BatchingHeartbeatLogger", "New", "inner sink is required")
	}
	return &BatchingHeartbeatLogger{
		inner:    inner,
		buffer:   make([]timedLine, 0, capacity),
		capacity: capacity,
	}, nil
}

func (b *BatchingHeartbeatLogger) Log(line string) error {
	return b.LogAt(time.Time{}, line)
}

// LogAt buffers line with its event time, forwarded to the inner sink on flush
func (b *BatchingHeartbeatLogger) LogAt(t time.Time, line string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = append(b.buffer, timedLine{at: t, line: line})
	if len(b.buffer) >= b.capacity {
		return b.flushLocked()
	}
	return nil
}

func (b *BatchingHeartbeatLogger) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buffer) == 0 {
		return nil
	}
	return b.flushLocked()
}

// BufferedLen is the number of lines not yet forwarded
func (b *BatchingHeartbeatLogger) BufferedLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

// flushLocked drains the buffer even when the inner sink fails; the first
// error is returned.
func (b *BatchingHeartbeatLogger) flushLocked() error {
	var firstErr error
	for _, tl := range b.buffer {
		if err := logAt(b.inner, tl.at, tl.line); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.buffer = b.buffer[:0]
	if err := b.inner.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// FileHeartbeatLogger appends lines to one file per UTC day,
// heartbeat-YYYYMMDD.jsonl in the log directory.
type FileHeartbeatLogger struct {
	mu          sync.Mutex
	logDir      string
	currentDate string
	file        *os.File
	now         func() time.Time
}

func NewFileHeartbeatLogger(logDir string) (*FileHeartbeatLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.NewSinkError("FileHeartbeatLogger", "New", err).WithContext("dir", logDir)
	}
	return &FileHeartbeatLogger{logDir: logDir, now: time.Now}, nil
}

// HeartbeatFileName returns the daily file name for t
func HeartbeatFileName(t time.Time) string {
	return fmt.Sprintf("heartbeat-%s.jsonl", t.UTC().Format("20060102"))
}

func (l *FileHeartbeatLogger) Log(line string) error {
	return l.LogAt(l.now(), line)
}

// LogAt writes line into the file of the day of t
func (l *FileHeartbeatLogger) LogAt(t time.Time, line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.fileFor(t)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		return errors.NewSinkError("FileHeartbeatLogger", "Log", err)
	}
	return nil
}

func (l *FileHeartbeatLogger) fileFor(t time.Time) (*os.File, error) {
	date := t.UTC().Format("20060102")
	if l.file != nil && l.currentDate == date {
		return l.file, nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	path := filepath.Join(l.logDir, HeartbeatFileName(t))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewSinkError("FileHeartbeatLogger", "Open", err).WithContext("path", path)
	}
	l.file = f
	l.currentDate = date
	return f, nil
}

func (l *FileHeartbeatLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return errors.NewSinkError("FileHeartbeatLogger", "Flush", err)
	}
	return nil
}

func (l *FileHeartbeatLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
