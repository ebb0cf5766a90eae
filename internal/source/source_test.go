package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s Source) map[string][]Observation {
	t.Helper()
	out := make(map[string][]Observation)
	for {
		id, obs, ok, err := s.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out[id] = obs
	}
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "AAPL.csv")

	// rows deliberately out of order
	csv := `minute,open,high,low,close,volume
2002-01-02 09:33:00,100.5,101,100.25,100.75,200
2002-01-02 09:31:00,100,100.5,99.5,100.25,1000
`
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	src := NewCSVSource(map[string]string{"AAPL": path}, loc)

	id, obs, ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "AAPL", id)
	require.Len(t, obs, 2)

	assert.True(t, obs[0].Minute.Equal(time.Date(2002, 1, 2, 9, 31, 0, 0, loc)), "rows sorted by minute")
	assert.Equal(t, 100.0, obs[0].Open)
	assert.Equal(t, 100.5, obs[0].High)
	assert.Equal(t, 99.5, obs[0].Low)
	assert.Equal(t, 100.25, obs[0].Close)
	assert.Equal(t, uint32(1000), obs[0].Volume)
	assert.Equal(t, uint32(200), obs[1].Volume)

	_, _, ok, err = src.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCSVSourceRFC3339(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IBM.csv")

	csv := `minute,open,high,low,close,volume
2002-01-02T14:31:00Z,55,55.5,54.5,55.25,10
`
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	src := NewCSVSource(map[string]string{"IBM": path}, nil)
	out := drain(t, src)

	require.Len(t, out["IBM"], 1)
	assert.True(t, out["IBM"][0].Minute.Equal(time.Date(2002, 1, 2, 14, 31, 0, 0, time.UTC)))
}

func TestCSVSourceColumnOrderIrrelevant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "X.csv")

	csv := `volume,close,low,high,open,minute
10,4,2,5,3,2002-01-02 09:31
`
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	out := drain(t, NewCSVSource(map[string]string{"X": path}, time.UTC))
	require.Len(t, out["X"], 1)
	o := out["X"][0]
	assert.Equal(t, 3.0, o.Open)
	assert.Equal(t, 5.0, o.High)
	assert.Equal(t, 2.0, o.Low)
	assert.Equal(t, 4.0, o.Close)
	assert.Equal(t, uint32(10), o.Volume)
}

func TestCSVSourceErrors(t *testing.T) {
	dir := t.TempDir()

	missingCol := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(missingCol, []byte("minute,open\n"), 0644))

	badStamp := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(badStamp,
		[]byte("minute,open,high,low,close,volume\nyesterday,1,1,1,1,1\n"), 0644))

	tests := []struct {
		name string
		path string
	}{
		{"missing columns", missingCol},
		{"bad minute stamp", badStamp},
		{"missing file", filepath.Join(dir, "nope.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewCSVSource(map[string]string{"Z": tt.path}, time.UTC)
			_, _, ok, err := src.Next()
			assert.True(t, ok)
			assert.Error(t, err)
		})
	}
}

func TestTableSourceDeterministicOrder(t *testing.T) {
	minute := time.Date(2002, 1, 2, 14, 31, 0, 0, time.UTC)
	later := minute.Add(5 * time.Minute)

	src := NewTableSource(map[string][]Observation{
		"IBM":  {{Minute: later, Close: 2}, {Minute: minute, Close: 1}},
		"AAPL": {{Minute: minute, Close: 3}},
	})

	id, _, ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "AAPL", id, "instruments yielded in sorted id order")

	id, obs, ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "IBM", id)
	require.Len(t, obs, 2)
	assert.True(t, obs[0].Minute.Equal(minute), "observations sorted by minute")

	_, _, ok, err = src.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
