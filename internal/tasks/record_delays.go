package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DelayRecorder stores a delay for each overdue loan that lacks one.
type DelayRecorder interface {
	RecordDelays(ctx context.Context) (int, error)
}

// RecordDelaysTask runs one delay sweep. Running it twice is harmless.
type RecordDelaysTask struct {
	RequestedAt time.Time `json:"requested_at"`
}

// Config returns the queue configuration for delay sweeps.
func (t RecordDelaysTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "record_delays",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RecordDelaysProcessor creates a processor function for RecordDelaysTask.
// A sweep that recorded some delays but failed on others is retried; the
// retry skips loans that already have one.
func RecordDelaysProcessor(recorder DelayRecorder) backlite.QueueProcessor[RecordDelaysTask] {
	return func(ctx context.Context, task RecordDelaysTask) error {
		if recorder == nil {
			return fmt.Errorf("delay recorder not configured")
		}

		recorded, err := recorder.RecordDelays(ctx)
		log.Printf("[TASK] Delay sweep requested at %s recorded %d delay(s)", task.RequestedAt.Format(time.RFC3339), recorded)
		if err != nil {
			return fmt.Errorf("record delays: %w", err)
		}
		return nil
	}
}

// NewRecordDelaysQueue creates a backlite queue for delay sweeps.
func NewRecordDelaysQueue(recorder DelayRecorder) backlite.Queue {
	return backlite.NewQueue(RecordDelaysProcessor(recorder))
}
