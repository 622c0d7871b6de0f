package services

import (
	"context"
	"errors"
	"io"
)

// readChunkSize is the buffer handed to each Read of the content stream.
// The transport layer controls how much of it a single Read fills.
const readChunkSize = 32 * 1024

// part is one reassembled buffer, or a terminal source error.
type part struct {
	data []byte
	err  error
}

// reassemble buffers transport-sized chunks from r into parts of at least
// minSize bytes; the final part flushes whatever remains and may be smaller.
// A minSize of zero emits every incoming chunk as its own part.
//
// The returned channel is the backpressure boundary: its capacity is depth,
// so the reader blocks once that many parts wait for upload. The channel is
// closed when the source is exhausted, after a source error (delivered
// in-band as part.err), or when ctx is cancelled. Cancel the context before
// abandoning the channel early.
func reassemble(ctx context.Context, r io.Reader, minSize, depth int) <-chan part {
	out := make(chan part, depth)

	go func() {
		defer close(out)

		var pending [][]byte
		var buffered int
		buf := make([]byte, readChunkSize)

		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				pending = append(pending, chunk)
				buffered += n

				if buffered >= minSize {
					if !send(ctx, out, part{data: concat(pending, buffered)}) {
						return
					}
					pending, buffered = nil, 0
				}
			}

			if err != nil {
				if errors.Is(err, io.EOF) {
					if buffered > 0 {
						send(ctx, out, part{data: concat(pending, buffered)})
					}
				} else {
					send(ctx, out, part{err: err})
				}
				return
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- part, p part) bool {
	select {
	case out <- p:
		return true
	case <-ctx.Done():
		return false
	}
}

func concat(chunks [][]byte, size int) []byte {
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return data
}
