// Package store is the keyed additive-merge sink for completed
// aggregates. Rows are keyed by (color, year*100+month); merging adds
// every counter field element-wise and is atomic at the row level.
package store

import (
	"context"
	"errors"

	"github.com/leoloe326/aws-training/internal/stats"
)

var ErrNotFound = errors.New("no aggregate row for key")

type Store interface {
	// Merge adds every counter of stat into its row. A non-empty token
	// marks the commit: a token already recorded on the row makes the
	// merge a no-op, which keeps lease-expiry redeliveries from double
	// counting. An empty token merges unconditionally.
	Merge(ctx context.Context, stat *stats.Stat, token string) error

	// Get returns the current aggregate row, or ErrNotFound.
	Get(ctx context.Context, color string, year, month int) (*stats.Stat, error)
}
