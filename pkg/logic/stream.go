package logic

import "context"

// Result is one item of a solution stream: either an extended
// Substitution, or a fatal error raised by a built-in handler. A Result
// never carries both.
type Result struct {
	Sub Substitution
	Err error
}

// Stream is a channel-backed lazy sequence of Results, produced by a
// single goroutine and consumed via Next. It is the concrete realization
// of the lazy stream of solutions the resolver and built-in handlers
// both deal in, carrying a plain substitution per item rather than a
// richer constraint store.
//
// Every suspension point — a put, a take — selects on ctx.Done(), the
// cooperative-cancellation mechanism that unwinds every goroutine in the
// pipeline as soon as it next reaches a channel operation.
type Stream struct {
	ch chan Result
}

func newStream() *Stream {
	return &Stream{ch: make(chan Result)}
}

// put sends a Result, or abandons the send if ctx is done. Returns false
// if the send was abandoned.
func (s *Stream) put(ctx context.Context, r Result) bool {
	select {
	case s.ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream) close() { close(s.ch) }

// Next blocks for the next Result, returning ok=false when the stream is
// exhausted or ctx is canceled first.
func (s *Stream) Next(ctx context.Context) (Result, bool) {
	select {
	case r, ok := <-s.ch:
		return r, ok
	case <-ctx.Done():
		return Result{}, false
	}
}

// forward drains src into dst, stopping early if ctx is canceled or stop
// reports true after a Result has been forwarded. It returns true if it
// stopped because stop() fired (so the caller can halt its own loop over
// sibling alternatives).
func forward(ctx context.Context, src, dst *Stream, stop func() bool) bool {
	for {
		r, ok := src.Next(ctx)
		if !ok {
			return false
		}
		if !dst.put(ctx, r) {
			return false
		}
		if stop != nil && stop() {
			return true
		}
	}
}
