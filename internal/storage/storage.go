// Package storage persists flow events to a local journal.
package storage

import "flowonarc/internal/model"

// EventSink receives batches of flow events.
type EventSink interface {
	PutEventBatch(events []model.StepEvent) error
}
