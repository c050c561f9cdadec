package persist

import (
	"context"
	"sync"
	"time"

	"github.com/cartload/server/internal/retention"
	"go.uber.org/zap"
)

// writeTimeout bounds a single background write.
const writeTimeout = 5 * time.Second

type writeJob struct {
	data   []byte
	delete bool
}

// AsyncWriter hands writes to a background goroutine so slow storage never
// stalls the tick. At most one job is pending per world; a newer save replaces
// an older one that has not started. Reads observe pending and in-flight jobs.
// Write failures are logged; the next save cadence retries.
type AsyncWriter struct {
	next       retention.Storage
	log        *zap.Logger
	maxPending int

	mu       sync.Mutex
	pending  map[string]writeJob
	inflight map[string]writeJob
	order    []string
	closed   bool

	wake     chan struct{}
	flushReq chan chan struct{}
	quit     chan struct{}
	stopped  chan struct{}
}

func NewAsyncWriter(next retention.Storage, maxPending int, log *zap.Logger) *AsyncWriter {
	if maxPending <= 0 {
		maxPending = 1
	}
	w := &AsyncWriter{
		next:       next,
		log:        log,
		maxPending: maxPending,
		pending:    make(map[string]writeJob),
		inflight:   make(map[string]writeJob),
		wake:       make(chan struct{}, 1),
		flushReq:   make(chan chan struct{}),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter) Read(ctx context.Context, world string) ([]byte, error) {
	w.mu.Lock()
	job, ok := w.pending[world]
	if !ok {
		job, ok = w.inflight[world]
	}
	w.mu.Unlock()
	if ok {
		if job.delete {
			return nil, nil
		}
		return append([]byte(nil), job.data...), nil
	}
	return w.next.Read(ctx, world)
}

func (w *AsyncWriter) Write(_ context.Context, world string, data []byte) error {
	return w.enqueue(world, writeJob{data: append([]byte(nil), data...)})
}

func (w *AsyncWriter) Delete(_ context.Context, world string) error {
	return w.enqueue(world, writeJob{delete: true})
}

func (w *AsyncWriter) enqueue(world string, job writeJob) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	if _, queued := w.pending[world]; !queued {
		if len(w.pending) >= w.maxPending {
			w.mu.Unlock()
			return ErrQueueFull
		}
		w.order = append(w.order, world)
	}
	w.pending[world] = job
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush blocks until every job queued before the call has been written.
func (w *AsyncWriter) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case w.flushReq <- done:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the background goroutine.
func (w *AsyncWriter) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()
	close(w.quit)
	<-w.stopped
}

func (w *AsyncWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case done := <-w.flushReq:
			w.drain()
			close(done)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *AsyncWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		world := w.order[0]
		w.order = w.order[1:]
		job := w.pending[world]
		delete(w.pending, world)
		w.inflight[world] = job
		w.mu.Unlock()

		w.apply(world, job)

		w.mu.Lock()
		delete(w.inflight, world)
		w.mu.Unlock()
	}
}

func (w *AsyncWriter) apply(world string, job writeJob) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	if job.delete {
		err = w.next.Delete(ctx, world)
	} else {
		err = w.next.Write(ctx, world, job.data)
	}
	if err != nil {
		w.log.Error("background retention write failed",
			zap.String("world", world), zap.Bool("delete", job.delete), zap.Error(err))
	}
}
