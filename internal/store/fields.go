package store

// Field names one of the parallel arrays stored per instrument.
type Field string

const (
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
	FieldDt     Field = "dt"
)

// Fields lists every stored column in persist order.
func Fields() []Field {
	return []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume, FieldDt}
}

// IsPrice reports whether the field holds scaled price values.
func (f Field) IsPrice() bool {
	switch f {
	case FieldOpen, FieldHigh, FieldLow, FieldClose:
		return true
	}
	return false
}
