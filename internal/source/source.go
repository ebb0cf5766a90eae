// Package source supplies sparse per-instrument minute observations to the
// dense series writer.
package source

import "time"

// Observation is one traded minute for an instrument. Prices are quoted in
// natural units; the store applies its own integer scaling on persist.
type Observation struct {
	Minute time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume uint32
}

// Source produces a lazy, finite sequence of (instrument, observations)
// pairs. Observations for an instrument must be ordered by minute; the
// writer sizes the instrument's dense grid from the final one.
type Source interface {
	// Next returns the next instrument and its sparse observation set.
	// ok is false once the source is exhausted.
	Next() (instrumentID string, obs []Observation, ok bool, err error)
}
