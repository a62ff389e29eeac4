package session

import "context"

// Strand is a single serial executor: every closure posted to it runs to
// completion before the next one starts, and never concurrently with
// another. It is the "game strand" from spec.md §5 — the sole writer of
// game state — generalized from the teacher's transport/websocket.Hub.Run
// event loop (register/unregister/broadcast channels) to one channel of
// arbitrary closures.
type Strand struct {
	tasks chan strandTask
}

type strandTask struct {
	fn   func()
	done chan struct{}
}

// NewStrand creates a Strand. Call Run in its own goroutine before
// posting any work.
func NewStrand() *Strand {
	return &Strand{tasks: make(chan strandTask)}
}

// Run consumes posted tasks until ctx is cancelled. It is meant to run in
// its own goroutine for the lifetime of the process.
func (s *Strand) Run(ctx context.Context) {
	for {
		select {
		case t := <-s.tasks:
			t.fn()
			close(t.done)
		case <-ctx.Done():
			return
		}
	}
}

// Do posts fn to the strand and blocks until it has run to completion.
// Callers mutate shared state through fn's closure and read results back
// afterward — the blocking wait is what lets an HTTP handler still "own"
// the response after the strand-side work finishes.
func (s *Strand) Do(fn func()) {
	t := strandTask{fn: fn, done: make(chan struct{})}
	s.tasks <- t
	<-t.done
}
