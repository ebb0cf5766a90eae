package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"
)

// Accepted minute-stamp layouts. The plain layout is interpreted in the
// location supplied to NewCSVSource.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// CSVSource reads sparse observations from one CSV file per instrument.
// Expected header: minute,open,high,low,close,volume.
type CSVSource struct {
	paths map[string]string
	order []string
	loc   *time.Location
	pos   int
}

// NewCSVSource maps instrument ids to CSV paths. Instruments are yielded in
// sorted id order so repeated runs are deterministic. loc resolves minute
// stamps that carry no zone offset.
func NewCSVSource(paths map[string]string, loc *time.Location) *CSVSource {
	order := make([]string, 0, len(paths))
	for id := range paths {
		order = append(order, id)
	}
	sort.Strings(order)

	if loc == nil {
		loc = time.UTC
	}

	return &CSVSource{paths: paths, order: order, loc: loc}
}

func (s *CSVSource) Next() (string, []Observation, bool, error) {
	if s.pos >= len(s.order) {
		return "", nil, false, nil
	}

	id := s.order[s.pos]
	s.pos++

	obs, err := s.readFile(s.paths[id])
	if err != nil {
		return id, nil, true, fmt.Errorf("instrument %s: %w", id, err)
	}
	return id, obs, true, nil
}

func (s *CSVSource) readFile(path string) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var obs []Observation
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		o, err := parseRow(row, col, s.loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obs = append(obs, o)
	}

	sort.Slice(obs, func(i, j int) bool {
		return obs[i].Minute.Before(obs[j].Minute)
	})
	return obs, nil
}

type columnIndex struct {
	minute, open, high, low, clos, volume int
}

func headerIndex(header []string) (columnIndex, error) {
	idx := columnIndex{minute: -1, open: -1, high: -1, low: -1, clos: -1, volume: -1}
	for i, name := range header {
		switch name {
		case "minute":
			idx.minute = i
		case "open":
			idx.open = i
		case "high":
			idx.high = i
		case "low":
			idx.low = i
		case "close":
			idx.clos = i
		case "volume":
			idx.volume = i
		}
	}
	for name, i := range map[string]int{
		"minute": idx.minute, "open": idx.open, "high": idx.high,
		"low": idx.low, "close": idx.clos, "volume": idx.volume,
	} {
		if i < 0 {
			return idx, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

func parseRow(row []string, col columnIndex, loc *time.Location) (Observation, error) {
	minute, err := parseMinute(row[col.minute], loc)
	if err != nil {
		return Observation{}, err
	}

	quotes := make([]float64, 4)
	for i, field := range []int{col.open, col.high, col.low, col.clos} {
		v, err := strconv.ParseFloat(row[field], 64)
		if err != nil {
			return Observation{}, fmt.Errorf("parse price %q: %w", row[field], err)
		}
		quotes[i] = v
	}

	volume, err := strconv.ParseUint(row[col.volume], 10, 32)
	if err != nil {
		return Observation{}, fmt.Errorf("parse volume %q: %w", row[col.volume], err)
	}

	return Observation{
		Minute: minute,
		Open:   quotes[0],
		High:   quotes[1],
		Low:    quotes[2],
		Close:  quotes[3],
		Volume: uint32(volume),
	}, nil
}

func parseMinute(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized minute stamp %q", s)
}
