package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trade-engine/minute-store/internal/calendar"
	"github.com/trade-engine/minute-store/internal/source"
	"github.com/trade-engine/minute-store/internal/store"
)

func testReader(t *testing.T) *store.Reader {
	t.Helper()

	session, err := calendar.NewSession(390, "09:31", "America/New_York")
	require.NoError(t, err)
	cal := calendar.Weekdays(
		time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2002, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	anchor := time.Date(2002, 1, 2, 0, 0, 0, 0, time.UTC)

	dir := filepath.Join(t.TempDir(), "store")
	w := store.NewWriter(cal, session, 1000, nil)
	require.NoError(t, w.Write(dir, anchor, source.NewTableSource(map[string][]source.Observation{
		"AAPL": {
			{
				Minute: time.Date(2002, 1, 2, 9, 31, 0, 0, session.Location),
				Open:   100, High: 100.5, Low: 99.5, Close: 100.25, Volume: 1000,
			},
			{
				Minute: time.Date(2002, 1, 3, 10, 0, 0, 0, session.Location),
				Open:   101, High: 101.5, Low: 100.5, Close: 101.25, Volume: 500,
			},
		},
	})))

	r, err := store.Open(dir, cal, session, 1000, nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestBarsSkipSentinelSlots(t *testing.T) {
	r := testReader(t)

	bars, err := Bars(r, "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2, "780 grid slots, 2 observed minutes")

	assert.Equal(t, 100.0, bars[0].Open)
	assert.Equal(t, 100.25, bars[0].Close)
	assert.Equal(t, int64(1000), bars[0].Volume)
	assert.Equal(t, int64(500), bars[1].Volume)
	assert.Less(t, bars[0].Timestamp, bars[1].Timestamp)
}

func TestBarsUnknownInstrument(t *testing.T) {
	r := testReader(t)

	_, err := Bars(r, "MSFT")
	assert.ErrorIs(t, err, store.ErrUnknownInstrument)
}

func TestExportParquetRoundTrip(t *testing.T) {
	r := testReader(t)
	out := filepath.Join(t.TempDir(), "aapl.parquet")

	require.NoError(t, Export(r, "AAPL", out))

	rows, err := parquet.ReadFile[Bar](out)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0].Open)
	assert.Equal(t, 101.25, rows[1].Close)
}
