// Package backend abstracts the storage holding monthly record shards.
// Implementations expose shard size lookup and streaming byte-range
// reads; the Writer side exists for the ingest pipeline and for test
// fixtures.
package backend

import (
	"context"
	"errors"
	"io"

	"github.com/leoloe326/aws-training/internal/shard"
)

var (
	ErrShardDoesNotExist = errors.New("shard does not exist")
	ErrBadSourceURI      = errors.New("unsupported source URI")
)

type Reader interface {
	// Size returns the shard object size in bytes, or ErrShardDoesNotExist.
	Size(ctx context.Context, s shard.Shard) (int64, error)

	// StreamRange streams length bytes of the shard starting at offset.
	StreamRange(ctx context.Context, s shard.Shard, offset, length int64) (io.ReadCloser, error)

	Shutdown()
}

type Writer interface {
	// Write stores a whole shard object.
	Write(ctx context.Context, s shard.Shard, data io.Reader, size int64) error
}
