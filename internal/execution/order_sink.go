package execution

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ducminhle1904/sleeve-risk-engine/internal/errors"
	"github.com/ducminhle1904/sleeve-risk-engine/internal/strategy"
)

// OrderSink receives engine orders for downstream execution
type OrderSink interface {
	Submit(order strategy.EngineOrder) error
	Flush() error
}

// InMemoryOrderSink keeps submitted orders in memory
type InMemoryOrderSink struct {
	mu     sync.Mutex
	orders []strategy.EngineOrder
}

func NewInMemoryOrderSink() *InMemoryOrderSink {
	return &InMemoryOrderSink{}
}

func (s *InMemoryOrderSink) Submit(order strategy.EngineOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	return nil
}

func (s *InMemoryOrderSink) Flush() error { return nil }

// Orders returns a copy of everything submitted so far
func (s *InMemoryOrderSink) Orders() []strategy.EngineOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]strategy.EngineOrder, len(s.orders))
	copy(out, s.orders)
	return out
}

// FileOrderSink appends every order as an OrderLogEvent JSON line. The
// file is opened per submit so external rotation is picked up.
type FileOrderSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileOrderSink(path string) *FileOrderSink {
	return &FileOrderSink{path: path, now: time.Now}
}

func (s *FileOrderSink) Path() string { return s.path }

func (s *FileOrderSink) Submit(order strategy.EngineOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewSinkError("FileOrderSink", "Submit", err).WithContext("path", s.path)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.NewSinkError("FileOrderSink", "Submit", err).WithContext("path", s.path)
	}
	defer f.Close()

	line := EncodeJSON(NewOrderLogEvent(order, s.now()))
	if _, err := f.WriteString(line + "\n"); err != nil {
		return errors.NewSinkError("FileOrderSink", "Submit", err).WithContext("path", s.path)
	}
	return nil
}

// Flush is a no-op, every submit is written through
func (s *FileOrderSink) Flush() error { return nil }
