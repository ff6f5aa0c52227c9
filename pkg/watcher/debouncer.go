package watcher

import (
	"context"
	"time"

	"github.com/voxgraph/layout-engine/pkg/logging"
)

// Debouncer batches rapid snapshot writes so a save storm triggers one
// relayout instead of many. An event is released after quietPeriod
// without further changes, or after maxWait at the latest.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		pending   *ChangeEvent
		quiet     *time.Timer
		deadline  *time.Timer
		quietC    <-chan time.Time
		deadlineC <-chan time.Time
	)

	flush := func() {
		if pending == nil {
			return
		}
		logging.Debug("flushing debounced snapshot change", "path", pending.Path)
		d.output <- *pending
		pending = nil
		if quiet != nil {
			quiet.Stop()
			quietC = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadlineC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			pending = &event
			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				quiet.Reset(d.quietPeriod)
			}
			quietC = quiet.C
			if deadlineC == nil {
				deadline = time.NewTimer(d.maxWait)
				deadlineC = deadline.C
			}

		case <-quietC:
			flush()

		case <-deadlineC:
			flush()
		}
	}
}
