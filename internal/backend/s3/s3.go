// Package s3 reads record shards from any S3-compatible object store
// using the minio client. Range reads go through an optionally hedged
// transport since they sit on the critical path of every mapper.
package s3

import (
	"context"
	"io"
	"net/http"

	"github.com/cristalhq/hedgedhttp"
	gkLog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/leoloe326/aws-training/internal/backend"
	"github.com/leoloe326/aws-training/internal/shard"
	"github.com/leoloe326/aws-training/pkg/util/log"
)

// readerWriter can read/write shards from an s3 backend
type readerWriter struct {
	logger     gkLog.Logger
	cfg        *Config
	core       *minio.Core
	hedgedCore *minio.Core
}

// New gets the S3 backend and confirms the bucket is reachable.
func New(cfg *Config) (backend.Reader, backend.Writer, error) {
	return internalNew(cfg, true)
}

// NewNoConfirm gets the S3 backend without testing it.
func NewNoConfirm(cfg *Config) (backend.Reader, backend.Writer, error) {
	return internalNew(cfg, false)
}

func internalNew(cfg *Config, confirm bool) (backend.Reader, backend.Writer, error) {
	l := log.Logger

	core, err := createCore(cfg, false)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unexpected error creating core")
	}

	hedgedCore, err := createCore(cfg, true)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unexpected error creating hedgedCore")
	}

	if confirm {
		_, err = core.ListObjects(cfg.Bucket, "", "", "/", 1)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unexpected error from ListObjects on %s", cfg.Bucket)
		}
	}

	rw := &readerWriter{
		logger:     l,
		cfg:        cfg,
		core:       core,
		hedgedCore: hedgedCore,
	}
	return rw, rw, nil
}

// Size implements backend.Reader
func (rw *readerWriter) Size(ctx context.Context, s shard.Shard) (int64, error) {
	info, err := rw.core.Client.StatObject(ctx, rw.cfg.Bucket, s.Object(), minio.StatObjectOptions{})
	if err != nil {
		return 0, readError(err)
	}
	return info.Size, nil
}

// StreamRange implements backend.Reader
func (rw *readerWriter) StreamRange(ctx context.Context, s shard.Shard, offset, length int64) (io.ReadCloser, error) {
	options := minio.GetObjectOptions{}
	// SetRange is inclusive on both ends
	if err := options.SetRange(offset, offset+length-1); err != nil {
		return nil, errors.Wrap(err, "error setting range header for s3 read")
	}

	reader, _, _, err := rw.hedgedCore.GetObject(ctx, rw.cfg.Bucket, s.Object(), options)
	if err != nil {
		return nil, errors.Wrapf(readError(err), "error in range read from s3 backend, bucket: %s, objName: %s", rw.cfg.Bucket, s.Object())
	}

	level.Debug(rw.logger).Log("msg", "opened s3 range read", "object", s.Object(), "offset", offset, "length", length)
	return reader, nil
}

// Shutdown implements backend.Reader
func (rw *readerWriter) Shutdown() {
}

// Write implements backend.Writer
func (rw *readerWriter) Write(ctx context.Context, s shard.Shard, data io.Reader, size int64) error {
	info, err := rw.core.Client.PutObject(ctx, rw.cfg.Bucket, s.Object(), data, size, minio.PutObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "error writing shard to s3 backend, object %s", s.Object())
	}

	level.Debug(rw.logger).Log("msg", "shard uploaded to s3", "object", s.Object(), "size", info.Size)
	return nil
}

func createCore(cfg *Config, hedge bool) (*minio.Core, error) {
	creds := credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.Static{
			Value: credentials.Value{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.FileMinioClient{},
		&credentials.IAM{
			Client: &http.Client{
				Transport: http.DefaultTransport,
			},
		},
	})

	customTransport, err := minio.DefaultTransport(!cfg.Insecure)
	if err != nil {
		return nil, errors.Wrap(err, "create minio.DefaultTransport")
	}

	if cfg.InsecureSkipVerify {
		customTransport.TLSClientConfig.InsecureSkipVerify = true
	}

	var transport http.RoundTripper = customTransport
	if hedge && cfg.HedgeRequestsAt != 0 {
		transport, err = hedgedhttp.NewRoundTripper(cfg.HedgeRequestsAt, cfg.HedgeRequestsUpTo, transport)
		if err != nil {
			return nil, err
		}
	}

	opts := &minio.Options{
		Region:    cfg.Region,
		Secure:    !cfg.Insecure,
		Creds:     creds,
		Transport: transport,
	}

	if cfg.ForcePathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	return minio.NewCore(cfg.Endpoint, opts)
}

func readError(err error) error {
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return backend.ErrShardDoesNotExist
	}
	return err
}
