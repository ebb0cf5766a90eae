package store

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trade-engine/minute-store/internal/calendar"
	"github.com/trade-engine/minute-store/internal/colstore"
	"github.com/trade-engine/minute-store/internal/source"
)

// Writer densifies sparse per-instrument observations into zero-filled
// minute arrays and persists them, one exclusive column set per instrument.
// A store is written in a single pass; instruments are never appended to.
type Writer struct {
	cal      *calendar.Calendar
	session  calendar.Session
	scale    float64
	logger   *zap.Logger
	ingestID string
}

// NewWriter binds the trading calendar, session geometry and price scale a
// store will be written with. The same session and scale must be supplied
// when reading the store back.
func NewWriter(cal *calendar.Calendar, session calendar.Session, priceScale float64, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		cal:      cal,
		session:  session,
		scale:    priceScale,
		logger:   logger,
		ingestID: uuid.New().String(),
	}
}

// InstrumentPath is the column set directory for one instrument.
func InstrumentPath(dir, instrumentID string) string {
	return filepath.Join(dir, instrumentID)
}

// Write persists every instrument the source yields under dir, with anchor
// as the store's first trading day. A failed instrument aborts the pass and
// surfaces to the caller; previously written instruments remain intact.
func (w *Writer) Write(dir string, anchor time.Time, src source.Source) error {
	ix, err := calendar.NewIndex(w.cal, anchor, w.session)
	if err != nil {
		return fmt.Errorf("anchor day: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := writeMetadata(dir, ix.Anchor(), w.ingestID); err != nil {
		return err
	}

	w.logger.Info("Starting dense write",
		zap.String("dir", dir),
		zap.String("anchor", ix.Anchor().Format(dayLayout)),
		zap.String("ingest_id", w.ingestID))

	count := 0
	for {
		id, obs, ok, err := src.Next()
		if err != nil {
			return fmt.Errorf("observation source: %w", err)
		}
		if !ok {
			break
		}

		if err := w.writeInstrument(dir, ix, id, obs); err != nil {
			return fmt.Errorf("instrument %s: %w", id, err)
		}
		count++
	}

	w.logger.Info("Dense write complete",
		zap.String("dir", dir),
		zap.Int("instruments", count))
	return nil
}

func (w *Writer) writeInstrument(dir string, ix *calendar.Index, id string, obs []source.Observation) error {
	if len(obs) == 0 {
		w.logger.Warn("Skipping instrument with no observations", zap.String("instrument", id))
		return nil
	}

	// The grid from the anchor through the final observed day fixes the
	// dense array size.
	grid, err := ix.Grid(obs[len(obs)-1].Minute)
	if err != nil {
		return err
	}
	n := len(grid)

	openCol := make([]uint32, n)
	highCol := make([]uint32, n)
	lowCol := make([]uint32, n)
	closeCol := make([]uint32, n)
	volCol := make([]uint32, n)
	dtCol := make([]uint32, n)

	for _, o := range obs {
		off, err := ix.Offset(o.Minute)
		if err != nil {
			return fmt.Errorf("observation at %s: %w", o.Minute.Format(time.RFC3339), err)
		}

		openCol[off] = w.scaleQuote(o.Open)
		highCol[off] = w.scaleQuote(o.High)
		lowCol[off] = w.scaleQuote(o.Low)
		closeCol[off] = w.scaleQuote(o.Close)
		volCol[off] = o.Volume
		dtCol[off] = uint32(o.Minute.Unix())
	}

	path := InstrumentPath(dir, id)
	err = colstore.Create(path, []colstore.Column{
		{Name: string(FieldOpen), Values: openCol},
		{Name: string(FieldHigh), Values: highCol},
		{Name: string(FieldLow), Values: lowCol},
		{Name: string(FieldClose), Values: closeCol},
		{Name: string(FieldVolume), Values: volCol},
		{Name: string(FieldDt), Values: dtCol},
	})
	if errors.Is(err, colstore.ErrExists) {
		return fmt.Errorf("%s: %w", path, ErrDestinationExists)
	}
	if err != nil {
		return err
	}

	w.logger.Info("Wrote instrument",
		zap.String("instrument", id),
		zap.Int("minutes", n),
		zap.Int("observations", len(obs)))
	return nil
}

// scaleQuote converts a natural-unit price to its stored integer encoding.
func (w *Writer) scaleQuote(price float64) uint32 {
	return uint32(math.Round(price * w.scale))
}
