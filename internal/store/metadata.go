package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/trade-engine/minute-store/internal/calendar"
)

// MetadataFilename is the shared per-store metadata file.
const MetadataFilename = "metadata.json"

const dayLayout = "2006-01-02"

// metadataSchema validates the store metadata file before it is trusted.
const metadataSchema = `{
	"type": "object",
	"required": ["first_trading_day"],
	"properties": {
		"first_trading_day": {
			"type": "string",
			"pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"
		},
		"ingest_id": {
			"type": "string"
		}
	}
}`

// Metadata is the store-level record persisted once per directory.
type Metadata struct {
	FirstTradingDay string `json:"first_trading_day"`
	IngestID        string `json:"ingest_id,omitempty"`
}

// writeMetadata persists the anchor day. Idempotent: repeated writes for the
// same store produce the same first_trading_day.
func writeMetadata(dir string, anchor time.Time, ingestID string) error {
	meta := Metadata{
		FirstTradingDay: calendar.Normalize(anchor).Format(dayLayout),
		IngestID:        ingestID,
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	path := filepath.Join(dir, MetadataFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// readMetadata loads and validates the store metadata, returning the parsed
// anchor day.
func readMetadata(dir string) (Metadata, time.Time, error) {
	path := filepath.Join(dir, MetadataFilename)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Metadata{}, time.Time{}, fmt.Errorf("%s: %w", path, ErrMissingMetadata)
	}
	if err != nil {
		return Metadata{}, time.Time{}, fmt.Errorf("read %s: %w", path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metadataSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Metadata{}, time.Time{}, fmt.Errorf("%s: %v: %w", path, err, ErrMalformedMetadata)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString(e.String())
			sb.WriteString("; ")
		}
		return Metadata{}, time.Time{}, fmt.Errorf("%s: %s%w", path, sb.String(), ErrMalformedMetadata)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, time.Time{}, fmt.Errorf("%s: %v: %w", path, err, ErrMalformedMetadata)
	}

	anchor, err := time.Parse(dayLayout, meta.FirstTradingDay)
	if err != nil {
		return Metadata{}, time.Time{}, fmt.Errorf("%s: first_trading_day %q: %w",
			path, meta.FirstTradingDay, ErrMalformedMetadata)
	}

	return meta, anchor, nil
}
