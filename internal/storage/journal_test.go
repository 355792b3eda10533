package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"flowonarc/internal/model"
	"flowonarc/internal/orchestrator"
)

func TestJournalAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "journal.jsonl")
	journal := NewJournal(path)

	first := []model.StepEvent{
		{Kind: model.EventFlowStarted, Operation: model.OpSwap, FlowID: "f1"},
		{Kind: model.EventStepStarted, Operation: model.OpSwap, FlowID: "f1", Step: model.RoleApprove},
	}
	if err := journal.PutEventBatch(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := journal.PutEventBatch([]model.StepEvent{
		{Kind: model.EventFlowSucceeded, Operation: model.OpSwap, FlowID: "f1"},
	}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	var events []model.StepEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var ev model.StepEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 3 {
		t.Fatalf("journal lines = %d, want 3", len(events))
	}
	if events[0].Kind != model.EventFlowStarted || events[2].Kind != model.EventFlowSucceeded {
		t.Fatalf("events = %+v", events)
	}
}

func TestJournalEmptyBatchWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	journal := NewJournal(path)

	if err := journal.PutEventBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create the file")
	}
}

type memorySink struct {
	mu     sync.Mutex
	events []model.StepEvent
}

func (m *memorySink) PutEventBatch(events []model.StepEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestRecordJournalsBusEvents(t *testing.T) {
	bus := orchestrator.NewBus()
	sink := &memorySink{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := NewRecorder(bus)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec.Run(ctx, sink, nil)
	}()

	// The subscription exists before Run starts, so this publish is
	// never lost.
	bus.Publish(model.StepEvent{Kind: model.EventFlowStarted, FlowID: "f1"})

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no events recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("recorder did not stop on cancel")
	}
}
