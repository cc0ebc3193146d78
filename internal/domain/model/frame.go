package model

// Frame is one raw tabular input as it arrived from an upstream system:
// ordered column headers plus string-typed cells. Sources disagree on header
// naming, so a Frame keeps the original headers until the schema resolver has
// mapped them onto canonical fields.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1 when the frame
// has no such column. Matching is exact; normalization is the schema
// resolver's job.
func (f Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the frame has no data rows.
func (f Frame) IsEmpty() bool {
	return len(f.Rows) == 0
}
