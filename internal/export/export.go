// Package export converts a stored instrument back to row-form bars for
// downstream tools that consume Parquet.
package export

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/trade-engine/minute-store/internal/store"
)

// Bar is one traded minute in row form. Zero-filled grid slots are dropped
// on export; only observed minutes appear.
type Bar struct {
	Timestamp int64   `parquet:"t" json:"t"` // Unix timestamp in seconds
	Open      float64 `parquet:"o" json:"o"`
	High      float64 `parquet:"h" json:"h"`
	Low       float64 `parquet:"l" json:"l"`
	Close     float64 `parquet:"c" json:"c"`
	Volume    int64   `parquet:"v" json:"v"`
}

// Bars collects the instrument's observed minutes, prices unscaled.
func Bars(r *store.Reader, instrumentID string) ([]Bar, error) {
	cols := make(map[store.Field][]uint32, 6)
	for _, f := range store.Fields() {
		values, err := r.ColumnValues(instrumentID, f)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f, err)
		}
		cols[f] = values
	}

	dt := cols[store.FieldDt]
	bars := make([]Bar, 0, len(dt))
	for i, ts := range dt {
		if ts == 0 {
			// untraded grid slot
			continue
		}
		bars = append(bars, Bar{
			Timestamp: int64(ts),
			Open:      r.Unscale(cols[store.FieldOpen][i]),
			High:      r.Unscale(cols[store.FieldHigh][i]),
			Low:       r.Unscale(cols[store.FieldLow][i]),
			Close:     r.Unscale(cols[store.FieldClose][i]),
			Volume:    int64(cols[store.FieldVolume][i]),
		})
	}
	return bars, nil
}

// Export writes the instrument's observed minutes to path as Parquet.
func Export(r *store.Reader, instrumentID, path string) error {
	bars, err := Bars(r, instrumentID)
	if err != nil {
		return err
	}
	if err := parquet.WriteFile(path, bars); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
