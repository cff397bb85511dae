package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskEncode(t *testing.T) {
	task := &Task{Color: "green", Year: 2016, Month: 1, Start: 0, End: 1000, Timeout: 3600}
	require.Equal(t, "green,2016,1,0,1000,3600", task.Encode())
}

func TestTaskDecode(t *testing.T) {
	task, err := Decode("green,2016,1,0,1000,3600")
	require.NoError(t, err)
	require.Equal(t, "green", task.Color)
	require.Equal(t, 2016, task.Year)
	require.Equal(t, 1, task.Month)
	require.Equal(t, int64(0), task.Start)
	require.Equal(t, int64(1000), task.End)
	require.Equal(t, 3600, task.Timeout)
	require.Empty(t, task.LeaseID)
	require.Empty(t, task.LeaseHandle)

	// lease tokens never round-trip through the wire format
	task.LeaseID = "abc"
	again, err := Decode(task.Encode())
	require.NoError(t, err)
	require.Empty(t, again.LeaseID)
}

func TestTaskDecodeErrors(t *testing.T) {
	for _, body := range []string{
		"",
		"green,2016,1,0,1000",            // too few fields
		"blue,2016,1,0,1000,3600",        // bad color
		"green,2016,1,zero,1000,3600",    // not an int
		"green,2016,1,1000,0,3600",       // end before start
		"green,2016,1,-5,1000,3600",      // negative start
		"green,2016,1,0,1000,3600,extra", // too many fields
	} {
		_, err := Decode(body)
		require.ErrorIs(t, err, ErrInvalidTask, "body %q", body)
	}
}
