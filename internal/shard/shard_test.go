package shard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	require.Equal(t, "green-2016-01.csv", New(ColorGreen, 2016, 1).Object())
	require.Equal(t, "yellow-2009-12.csv", New(ColorYellow, 2009, 12).Object())
}

func TestYM(t *testing.T) {
	require.Equal(t, 201601, New(ColorGreen, 2016, 1).YM())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		shard Shard
		err   error
	}{
		{"green ok", New(ColorGreen, 2016, 1), nil},
		{"yellow ok", New(ColorYellow, 2009, 1), nil},
		{"bad color", New("blue", 2016, 1), ErrBadColor},
		{"green before window", New(ColorGreen, 2013, 7), ErrDateOutOfRange},
		{"green at window start", New(ColorGreen, 2013, 8), nil},
		{"after window", New(ColorYellow, 2016, 7), ErrDateOutOfRange},
		{"bad month", New(ColorGreen, 2016, 13), ErrDateOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.shard.Validate()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}
