package store

import (
	"fmt"

	"github.com/nkazantsev/streetdogs/game/model"
)

// batchSaver is the part of Store that AsyncSaver needs — small enough to
// fake in tests without a live database.
type batchSaver interface {
	Save(stats []model.SaveStat) error
}

// AsyncSaver adapts a batchSaver to game/session.StatSaver: Save must
// never block the game strand waiting on the connection pool (spec.md
// §5), so it hands the batch to a small pool of worker goroutines over a
// bounded channel and drops the batch — logging a warning — if that
// channel is already full rather than ever blocking the caller.
type AsyncSaver struct {
	store batchSaver
	jobs  chan []model.SaveStat
}

// NewAsyncSaver starts workers goroutines draining a queue of depth
// queueDepth, each calling store.Save synchronously.
func NewAsyncSaver(s batchSaver, workers, queueDepth int) *AsyncSaver {
	a := &AsyncSaver{store: s, jobs: make(chan []model.SaveStat, queueDepth)}
	for i := 0; i < workers; i++ {
		go a.worker()
	}
	return a
}

func (a *AsyncSaver) worker() {
	for stats := range a.jobs {
		if err := a.store.Save(stats); err != nil {
			fmt.Printf("Warning: failed to save %d retired-player stat(s): %v\n", len(stats), err)
		}
	}
}

// Save enqueues stats for a worker to persist. It never blocks: a full
// queue means the batch is dropped with a logged warning, matching
// spec.md §7's "transient DB failures during Save are logged and the
// batch is dropped" for the backpressure case too.
func (a *AsyncSaver) Save(stats []model.SaveStat) {
	select {
	case a.jobs <- stats:
	default:
		fmt.Printf("Warning: stat-save queue full, dropping batch of %d\n", len(stats))
	}
}
