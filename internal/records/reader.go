// Package records streams the fixed-width trip records of one shard.
// Every record occupies exactly RecordLength bytes, which is what makes
// byte-range sharding safe: record i lives at [i*L, (i+1)*L).
package records

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/leoloe326/aws-training/internal/backend"
	"github.com/leoloe326/aws-training/internal/queue"
	"github.com/leoloe326/aws-training/internal/shard"
)

// RecordLength is the fixed record size in bytes, terminator included.
const RecordLength = 80

var (
	ErrInvalidRange   = errors.New("invalid record range")
	ErrMalformedShard = errors.New("malformed shard")
)

// Total returns the record count of a shard, guarding the fixed-width
// invariant on every open.
func Total(ctx context.Context, b backend.Reader, sh shard.Shard) (int64, error) {
	size, err := b.Size(ctx, sh)
	if err != nil {
		return 0, err
	}
	if size%RecordLength != 0 {
		return 0, fmt.Errorf("%w: %s size %d is not a multiple of %d", ErrMalformedShard, sh.Object(), size, RecordLength)
	}
	return size / RecordLength, nil
}

// Reader yields one record per Next call, at most end-start of them.
type Reader struct {
	rc        io.ReadCloser
	buf       *bufio.Reader
	fixed     bool  // fixed-width reads vs line reads (stdin)
	skip      int64 // leading lines to drop (stdin)
	remaining int64
	start     int64
	end       int64
}

// Open streams the nth of parts subranges of [start, end) of a shard.
// end is clamped to the shard's record count first; an empty range after
// clamping reads as an empty stream. The subrange bounds come from
// queue.CutNth (which takes an inclusive end) so they line up exactly
// with task partitioning.
func Open(ctx context.Context, b backend.Reader, sh shard.Shard, start, end int64, parts, nth int) (*Reader, error) {
	total, err := Total(ctx, b, sh)
	if err != nil {
		return nil, err
	}

	if end > total {
		end = total
	}
	if start < 0 || start > end {
		return nil, fmt.Errorf("%w: [%d, %d) for %s (records=%d)", ErrInvalidRange, start, end, sh.Object(), total)
	}
	if start == end {
		// e.g. a start at or past the clamped end: nothing to read
		return &Reader{
			rc:    io.NopCloser(bytes.NewReader(nil)),
			fixed: true,
			start: start,
			end:   end,
		}, nil
	}

	r, err := queue.CutNth(start, end-1, parts, nth)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot cut [%d, %d] into %d parts: %s", ErrInvalidRange, start, end, parts, err)
	}

	rc, err := b.StreamRange(ctx, sh, r.Start*RecordLength, (r.End-r.Start)*RecordLength)
	if err != nil {
		return nil, err
	}

	return &Reader{
		rc:        rc,
		buf:       bufio.NewReaderSize(rc, 64*1024),
		fixed:     true,
		remaining: r.End - r.Start,
		start:     r.Start,
		end:       r.End,
	}, nil
}

// NewLineReader reads newline-delimited records from an arbitrary stream
// (stdin): the first start lines are skipped and at most end-start are
// yielded. No range cutting; the stream cannot be partitioned.
func NewLineReader(rc io.ReadCloser, start, end int64) (*Reader, error) {
	if start < 0 || start > end {
		return nil, fmt.Errorf("%w: [%d, %d] for stdin", ErrInvalidRange, start, end)
	}
	return &Reader{
		rc:        rc,
		buf:       bufio.NewReader(rc),
		skip:      start,
		remaining: end - start,
		start:     start,
		end:       end,
	}, nil
}

// Range returns the half-open record interval this reader covers.
func (r *Reader) Range() (int64, int64) {
	return r.start, r.end
}

// Next returns the next record, or io.EOF. A stream shorter than the
// requested range terminates cleanly on the first empty read; a torn
// trailing record surfaces as io.ErrUnexpectedEOF.
func (r *Reader) Next() ([]byte, error) {
	for r.skip > 0 {
		if _, err := r.buf.ReadBytes('\n'); err != nil {
			return nil, err
		}
		r.skip--
	}

	if r.remaining <= 0 {
		return nil, io.EOF
	}

	var line []byte
	if r.fixed {
		line = make([]byte, RecordLength)
		n, err := io.ReadFull(r.buf, line)
		if n == 0 {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrapf(io.ErrUnexpectedEOF, "torn record after %d bytes", n)
		}
	} else {
		var err error
		line, err = r.buf.ReadBytes('\n')
		if len(line) == 0 {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
	}

	r.remaining--
	return line, nil
}

func (r *Reader) Close() error {
	return r.rc.Close()
}
