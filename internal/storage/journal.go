package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"flowonarc/internal/model"
	"flowonarc/internal/orchestrator"
)

// Journal appends flow events to a JSONL file, one event per line.
type Journal struct {
	path string
	mu   sync.Mutex
}

// NewJournal builds a Journal writing to path.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// PutEventBatch appends a batch of events as JSON lines.
func (j *Journal) PutEventBatch(events []model.StepEvent) error {
	if len(events) == 0 {
		return nil
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, event := range events {
		line, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}

	return nil
}

// Recorder drains a bus subscription into an event sink. Subscribing
// happens at construction so no events published after NewRecorder are
// missed.
type Recorder struct {
	events <-chan model.StepEvent
	cancel func()
}

// NewRecorder subscribes to the bus.
func NewRecorder(bus *orchestrator.Bus) *Recorder {
	events, cancel := bus.Subscribe(64)
	return &Recorder{events: events, cancel: cancel}
}

// Run journals events until the context is canceled. Write failures
// are logged, not fatal; the journal is an audit trail, not a
// dependency of the flows themselves.
func (r *Recorder) Run(ctx context.Context, sink EventSink, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defer r.cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.events:
			if !ok {
				return
			}
			if err := sink.PutEventBatch([]model.StepEvent{ev}); err != nil {
				logger.Warn("journal write failed", zap.Error(err))
			}
		}
	}
}
