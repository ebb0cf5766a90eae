// Package colstore persists named fixed-width uint32 arrays as a single
// Arrow IPC file per directory. A column set is written once, exclusively,
// and read back with random access by integer index.
package colstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ColumnsFilename is the Arrow IPC file kept inside every column set directory.
const ColumnsFilename = "columns.arrow"

var (
	// ErrExists is returned by Create when the destination directory is
	// already populated.
	ErrExists = errors.New("column set already exists")

	// ErrUnknownColumn is returned when a named column is not part of the set.
	ErrUnknownColumn = errors.New("unknown column")
)

// Column is one named fixed-width array to persist.
type Column struct {
	Name   string
	Values []uint32
}

// Create writes the given columns to path as one Arrow record batch.
// Creation is exclusive: an existing path is an error, never overwritten.
// All columns must have identical length.
func Create(path string, cols []Column) error {
	if len(cols) == 0 {
		return fmt.Errorf("create %s: no columns", path)
	}
	length := len(cols[0].Values)
	for _, c := range cols[1:] {
		if len(c.Values) != length {
			return fmt.Errorf("create %s: column %s has length %d, want %d",
				path, c.Name, len(c.Values), length)
		}
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, ErrExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrow.PrimitiveTypes.Uint32, Nullable: false}
	}
	schema := arrow.NewSchema(fields, nil)

	pool := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	for i, c := range cols {
		builder.Field(i).(*array.Uint32Builder).AppendValues(c.Values, nil)
	}

	record := builder.NewRecord()
	defer record.Release()

	filePath := filepath.Join(path, ColumnsFilename)
	tempFilePath := filePath + ".tmp"

	file, err := os.Create(tempFilePath)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tempFilePath, err)
	}

	writer, err := ipc.NewFileWriter(file, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create arrow file writer: %w", err)
	}

	if err := writer.Write(record); err != nil {
		writer.Close()
		file.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to close arrow writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempFilePath, filePath); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", filePath, err)
	}

	return nil
}

// ColumnSet is a read-only handle on a persisted column set. It keeps the
// underlying file and decoded record alive until Close.
type ColumnSet struct {
	file   *os.File
	reader *ipc.FileReader
	record arrow.Record
	byName map[string]int
}

// Open maps the column set at path read-only. Multiple concurrent opens of
// the same path are safe; each ColumnSet owns its own file handle.
func Open(path string) (*ColumnSet, error) {
	file, err := os.Open(filepath.Join(path, ColumnsFilename))
	if err != nil {
		return nil, err
	}

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create arrow reader for %s: %w", path, err)
	}

	if reader.NumRecords() < 1 {
		reader.Close()
		file.Close()
		return nil, fmt.Errorf("%s: empty column set", path)
	}

	record, err := reader.Record(0)
	if err != nil {
		reader.Close()
		file.Close()
		return nil, fmt.Errorf("failed to read record from %s: %w", path, err)
	}

	byName := make(map[string]int, record.Schema().NumFields())
	for i, f := range record.Schema().Fields() {
		byName[f.Name] = i
	}

	return &ColumnSet{
		file:   file,
		reader: reader,
		record: record,
		byName: byName,
	}, nil
}

// Len is the shared length of every column in the set.
func (s *ColumnSet) Len() int {
	return int(s.record.NumRows())
}

// Names lists the stored columns in schema order.
func (s *ColumnSet) Names() []string {
	names := make([]string, s.record.Schema().NumFields())
	for i, f := range s.record.Schema().Fields() {
		names[i] = f.Name
	}
	return names
}

// Column returns the random-access handle for a named column.
func (s *ColumnSet) Column(name string) (*ColumnHandle, error) {
	idx, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownColumn)
	}
	arr, ok := s.record.Column(idx).(*array.Uint32)
	if !ok {
		return nil, fmt.Errorf("column %s is not uint32", name)
	}
	return &ColumnHandle{arr: arr}, nil
}

func (s *ColumnSet) Close() error {
	if err := s.reader.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// ColumnHandle gives O(1) indexed access into one stored array. Handles stay
// valid until the owning ColumnSet is closed.
type ColumnHandle struct {
	arr *array.Uint32
}

func (h *ColumnHandle) Len() int {
	return h.arr.Len()
}

// Value returns the element at index i.
func (h *ColumnHandle) Value(i int) uint32 {
	return h.arr.Value(i)
}

// Slice copies the half-open range [lo, hi) out of the column.
func (h *ColumnHandle) Slice(lo, hi int) []uint32 {
	out := make([]uint32, hi-lo)
	copy(out, h.arr.Uint32Values()[lo:hi])
	return out
}

// Values copies the full column.
func (h *ColumnHandle) Values() []uint32 {
	out := make([]uint32, h.arr.Len())
	copy(out, h.arr.Uint32Values())
	return out
}
