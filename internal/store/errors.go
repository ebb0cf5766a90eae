package store

import "errors"

var (
	// ErrDestinationExists marks a write collision: the instrument's column
	// set was already persisted in this store.
	ErrDestinationExists = errors.New("instrument destination already exists")

	// ErrMissingMetadata marks a store directory without a metadata file.
	ErrMissingMetadata = errors.New("store metadata missing")

	// ErrMalformedMetadata marks an unreadable or invalid metadata file.
	ErrMalformedMetadata = errors.New("store metadata malformed")

	// ErrUnknownInstrument marks a lookup against an instrument that was
	// never written to the store.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrOffsetOutOfBounds marks a valid calendar position beyond the
	// instrument's stored extent.
	ErrOffsetOutOfBounds = errors.New("offset beyond stored extent")
)
