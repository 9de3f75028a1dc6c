// Package stream provides channel-based operators for cancellable event
// streams.
//
// A stream is a receive-only channel of Event values. The producer closes the
// channel on completion; an Event carrying an error is always the last one
// sent. Every operator stops and closes its output when the context is done.
package stream
