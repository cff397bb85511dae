package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/leoloe326/aws-training/internal/backend"
	"github.com/leoloe326/aws-training/internal/shard"
)

// readerWriter serves shards out of a plain directory.
type readerWriter struct {
	cfg *Config
}

func New(cfg *Config) (backend.Reader, backend.Writer, error) {
	fi, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "cannot stat shard directory %s", cfg.Path)
	}
	if !fi.IsDir() {
		return nil, nil, errors.Errorf("%s is not a directory", cfg.Path)
	}

	rw := &readerWriter{cfg: cfg}
	return rw, rw, nil
}

// Size implements backend.Reader
func (rw *readerWriter) Size(_ context.Context, s shard.Shard) (int64, error) {
	fi, err := os.Stat(rw.objectPath(s))
	if os.IsNotExist(err) {
		return 0, backend.ErrShardDoesNotExist
	}
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// StreamRange implements backend.Reader
func (rw *readerWriter) StreamRange(_ context.Context, s shard.Shard, offset, length int64) (io.ReadCloser, error) {
	f, err := os.Open(rw.objectPath(s))
	if os.IsNotExist(err) {
		return nil, backend.ErrShardDoesNotExist
	}
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "error seeking to %d in %s", offset, rw.objectPath(s))
	}

	return &rangeReader{r: io.LimitReader(f, length), f: f}, nil
}

// Shutdown implements backend.Reader
func (rw *readerWriter) Shutdown() {
}

// Write implements backend.Writer
func (rw *readerWriter) Write(_ context.Context, s shard.Shard, data io.Reader, _ int64) error {
	tmp, err := os.CreateTemp(rw.cfg.Path, s.Object()+".tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "error writing shard %s", s.Object())
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), rw.objectPath(s))
}

func (rw *readerWriter) objectPath(s shard.Shard) string {
	return filepath.Join(rw.cfg.Path, s.Object())
}

type rangeReader struct {
	r io.Reader
	f *os.File
}

func (r *rangeReader) Read(p []byte) (int, error) { return r.r.Read(p) }
func (r *rangeReader) Close() error               { return r.f.Close() }
