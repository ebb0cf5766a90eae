package store

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/trade-engine/minute-store/internal/calendar"
	"github.com/trade-engine/minute-store/internal/colstore"
)

// Point is one (canonical minute, raw value) pair from a ranged lookup.
type Point struct {
	Minute time.Time
	Value  uint32
}

type handleKey struct {
	field      Field
	instrument string
}

// Reader answers point and range lookups against a written store. Column
// handles are opened lazily on first access and cached for the reader's
// lifetime; each Reader owns its cache, so concurrent Readers over the same
// immutable store never interfere.
type Reader struct {
	dir    string
	scale  float64
	logger *zap.Logger

	meta   Metadata
	anchor time.Time
	ix     *calendar.Index

	sets    map[string]*colstore.ColumnSet
	handles map[handleKey]*colstore.ColumnHandle
}

// Open loads the store metadata at dir and derives the usable calendar
// window starting at the persisted first trading day. The calendar, session
// geometry and price scale must match the ones the store was written with.
func Open(dir string, cal *calendar.Calendar, session calendar.Session, priceScale float64, logger *zap.Logger) (*Reader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	meta, anchor, err := readMetadata(dir)
	if err != nil {
		return nil, err
	}

	window := cal.Slice(anchor)
	ix, err := calendar.NewIndex(window, anchor, session)
	if err != nil {
		return nil, fmt.Errorf("first_trading_day %s not in calendar: %w",
			meta.FirstTradingDay, ErrMalformedMetadata)
	}

	logger.Info("Opened store",
		zap.String("dir", dir),
		zap.String("first_trading_day", meta.FirstTradingDay),
		zap.Int("trading_days", window.Len()))

	return &Reader{
		dir:     dir,
		scale:   priceScale,
		logger:  logger,
		meta:    meta,
		anchor:  anchor,
		ix:      ix,
		sets:    make(map[string]*colstore.ColumnSet),
		handles: make(map[handleKey]*colstore.ColumnHandle),
	}, nil
}

// FirstTradingDay is the store's anchor day; offset zero addresses its
// session open.
func (r *Reader) FirstTradingDay() time.Time {
	return r.anchor
}

func (r *Reader) Metadata() Metadata {
	return r.meta
}

// ValueAt returns the raw stored value for (instrument, field) at t. A zero
// return inside the stored extent means "no trade that minute"; the store
// keeps no separate missing marker, so zero is indistinguishable from a
// literal zero value.
func (r *Reader) ValueAt(instrumentID string, field Field, t time.Time) (uint32, error) {
	off, err := r.ix.Offset(t)
	if err != nil {
		return 0, err
	}

	h, err := r.handle(field, instrumentID)
	if err != nil {
		return 0, err
	}

	if off >= h.Len() {
		return 0, fmt.Errorf("offset %d, stored %d minutes: %w", off, h.Len(), ErrOffsetOutOfBounds)
	}
	return h.Value(off), nil
}

// PriceAt is ValueAt with the integer price encoding undone. Only meaningful
// for price fields.
func (r *Reader) PriceAt(instrumentID string, field Field, t time.Time) (float64, error) {
	v, err := r.ValueAt(instrumentID, field, t)
	if err != nil {
		return 0, err
	}
	return r.Unscale(v), nil
}

// Unscale converts a stored integer price back to natural units.
func (r *Reader) Unscale(v uint32) float64 {
	return float64(v) / r.scale
}

// Range returns (minute, value) pairs for every canonical minute between
// start and end inclusive. Positions beyond the instrument's stored extent
// are omitted, not errors; start and end must themselves be valid session
// minutes.
func (r *Reader) Range(instrumentID string, field Field, start, end time.Time) ([]Point, error) {
	startOff, err := r.ix.Offset(start)
	if err != nil {
		return nil, err
	}
	endOff, err := r.ix.Offset(end)
	if err != nil {
		return nil, err
	}
	if endOff < startOff {
		return nil, nil
	}

	h, err := r.handle(field, instrumentID)
	if err != nil {
		return nil, err
	}

	hi := endOff + 1
	if hi > h.Len() {
		hi = h.Len()
	}
	if startOff >= hi {
		return nil, nil
	}

	points := make([]Point, 0, hi-startOff)
	for off := startOff; off < hi; off++ {
		minute, err := r.ix.Minute(off)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Minute: minute, Value: h.Value(off)})
	}
	return points, nil
}

// ColumnValues copies the instrument's full stored column for field.
func (r *Reader) ColumnValues(instrumentID string, field Field) ([]uint32, error) {
	h, err := r.handle(field, instrumentID)
	if err != nil {
		return nil, err
	}
	return h.Values(), nil
}

// handle returns the cached column handle for (field, instrument), opening
// the instrument's column set on first access.
func (r *Reader) handle(field Field, instrumentID string) (*colstore.ColumnHandle, error) {
	key := handleKey{field: field, instrument: instrumentID}
	if h, ok := r.handles[key]; ok {
		return h, nil
	}

	set, ok := r.sets[instrumentID]
	if !ok {
		var err error
		set, err = colstore.Open(InstrumentPath(r.dir, instrumentID))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", instrumentID, ErrUnknownInstrument)
		}
		if err != nil {
			return nil, err
		}
		r.sets[instrumentID] = set

		r.logger.Debug("Opened instrument column set",
			zap.String("instrument", instrumentID),
			zap.Int("minutes", set.Len()))
	}

	h, err := set.Column(string(field))
	if err != nil {
		return nil, err
	}
	r.handles[key] = h
	return h, nil
}

// Close releases every cached column set. The reader must not be used after.
func (r *Reader) Close() error {
	var first error
	for id, set := range r.sets {
		if err := set.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", id, err)
		}
	}
	r.sets = make(map[string]*colstore.ColumnSet)
	r.handles = make(map[handleKey]*colstore.ColumnHandle)
	return first
}
