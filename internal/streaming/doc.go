// Package streaming provides timeout-protected response writing for
// proxied audio streams.
//
// Track bytes flow from the share service through this server to the
// player, and net/http alone gives no per-write deadline on that path:
// a client that pauses playback (or silently vanishes behind NAT) can
// hold the upstream connection open indefinitely. TimeoutWriter bounds
// each chunk write, reaps idle streams, and distinguishes the three
// ways a stream ends early:
//
//   - ErrWriteTimeout: the client is accepting bytes too slowly
//   - ErrClientGone: the client disconnected (request context canceled)
//   - ErrStreamCanceled: we shut the stream down ourselves
//
// Handlers use StreamWithTimeout as a drop-in for io.Copy after the
// status and headers have been written:
//
//	if err := streaming.StreamWithTimeout(r.Context(), w, resp.Body, streaming.DefaultTimeoutWriterConfig()); err != nil {
//		logging.Debug("Stream ended early: %v", err)
//	}
package streaming
