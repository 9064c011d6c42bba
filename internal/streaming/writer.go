package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"shareplay/internal/logging"
)

// Sentinel errors for proxied streams.
var (
	// ErrWriteTimeout indicates a single write exceeded the configured
	// timeout, typically a client draining the stream too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the client disconnected before the stream
	// completed, detected via request context cancellation.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates the stream was shut down on our side,
	// by Close or a parent context cancellation.
	ErrStreamCanceled = errors.New("stream canceled")
)

// TimeoutWriterConfig bounds how long a proxied stream may sit on a
// slow client. The share service drops upstream connections that stall,
// so a stuck download must release its writer promptly.
type TimeoutWriterConfig struct {
	// WriteTimeout is the maximum time for a single chunk write.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time between successful writes.
	IdleTimeout time.Duration
	// ChunkSize splits large writes so stalls are detected mid-buffer
	// (0 writes buffers as received).
	ChunkSize int
}

// DefaultTimeoutWriterConfig returns the production stream settings.
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter so a stalled client cannot
// pin the upstream share connection forever. Audio players routinely
// pause mid-download; the idle timeout is what reaps those, while the
// write timeout catches clients that accept bytes at a trickle.
type TimeoutWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ctx     context.Context
	cancel  context.CancelFunc
	config  TimeoutWriterConfig

	mu        sync.Mutex
	closed    bool
	lastWrite time.Time
	written   int64
	started   time.Time
}

// NewTimeoutWriter wraps w with timeout protection tied to ctx
// (normally the request context, so client disconnects cancel it).
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	streamCtx, cancel := context.WithCancel(ctx)

	tw := &TimeoutWriter{
		w:         w,
		ctx:       streamCtx,
		cancel:    cancel,
		config:    config,
		started:   time.Now(),
		lastWrite: time.Now(),
	}
	if flusher, ok := w.(http.Flusher); ok {
		tw.flusher = flusher
	}

	go tw.watchIdle()
	return tw
}

// Write implements io.Writer. Large buffers are split into chunks so a
// stall surfaces within one chunk rather than one buffer.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	closed := tw.closed
	tw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	written := 0
	for len(p) > 0 {
		select {
		case <-tw.ctx.Done():
			return written, tw.contextError()
		default:
		}

		chunk := len(p)
		if tw.config.ChunkSize > 0 && chunk > tw.config.ChunkSize {
			chunk = tw.config.ChunkSize
		}

		n, err := tw.writeChunk(p[:chunk])
		written += n
		if err != nil {
			return written, err
		}
		p = p[chunk:]

		// Push each chunk out so the player's buffer fills steadily.
		if tw.flusher != nil && len(p) > 0 {
			tw.flusher.Flush()
		}
	}
	return written, nil
}

// writeChunk performs one bounded write. The write itself runs on a
// goroutine because ResponseWriter.Write has no deadline of its own;
// the buffered channel lets an abandoned write finish without leaking.
func (tw *TimeoutWriter) writeChunk(p []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)

	go func() {
		n, err := tw.w.Write(p)
		done <- result{n, err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			tw.mu.Lock()
			tw.lastWrite = time.Now()
			tw.written += int64(res.n)
			tw.mu.Unlock()
		}
		return res.n, res.err

	case <-time.After(tw.config.WriteTimeout):
		tw.cancel()
		return 0, ErrWriteTimeout

	case <-tw.ctx.Done():
		return 0, tw.contextError()
	}
}

// watchIdle cancels the stream when no write has succeeded within the
// idle timeout.
func (tw *TimeoutWriter) watchIdle() {
	if tw.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(tw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tw.mu.Lock()
			idle := time.Since(tw.lastWrite)
			closed := tw.closed
			tw.mu.Unlock()

			if closed {
				return
			}
			if idle > tw.config.IdleTimeout {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				tw.mu.Lock()
				tw.closed = true
				tw.mu.Unlock()
				tw.cancel()
				return
			}

		case <-tw.ctx.Done():
			return
		}
	}
}

// contextError maps context termination onto the right sentinel.
func (tw *TimeoutWriter) contextError() error {
	if errors.Is(tw.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close stops the idle watcher and marks the writer finished. Safe to
// call more than once.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return nil
	}
	tw.closed = true
	tw.cancel()
	return nil
}

// Stats returns bytes written and elapsed time so far.
func (tw *TimeoutWriter) Stats() (written int64, elapsed time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.written, time.Since(tw.started)
}

// StreamWithTimeout copies r to the response writer under timeout
// protection. The caller has already written status and headers; this
// only moves bytes. Mid-stream errors are returned for logging, not
// recovery, since the response is half-sent by then.
func StreamWithTimeout(ctx context.Context, w http.ResponseWriter, r io.Reader, config TimeoutWriterConfig) error {
	tw := NewTimeoutWriter(ctx, w, config)
	defer tw.Close()

	_, err := io.Copy(tw, r)

	written, elapsed := tw.Stats()
	logging.Debug("Stream finished: %d bytes in %v", written, elapsed)
	return err
}
