package aggregate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Field selects one column from a record.
//
// Path uses gjson syntax, e.g. "track.album.name" or "artists.#.name".
type Field struct {
	Name     string
	Path     string
	Optional bool
}

// Row is one projected record keyed by [Field.Name].
type Row map[string]any

// String returns the value at key formatted for display. Lists are joined with ", ".
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the numeric value at key, or 0.
func (r Row) Int(key string) int {
	if v, ok := r[key].(float64); ok {
		return int(v)
	}
	return 0
}

// Strings returns the list value at key as strings.
func (r Row) Strings(key string) []string {
	list, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, fmt.Sprint(e))
	}
	return out
}

// MissingFieldError reports a required field that was absent or null in a record.
type MissingFieldError struct {
	Index int
	Field Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record %d: missing required field %q (%s)", e.Index, e.Field.Name, e.Field.Path)
}

// Project extracts fields from every record in order.
//
// Absent optional fields are nil in the row. An absent or null required field fails the whole projection.
func Project(records []json.RawMessage, fields []Field) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		row, err := ProjectOne(i, rec, fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ProjectOne extracts fields from a single record. index is reported in a [MissingFieldError] and
// lets streaming callers number records across pages.
func ProjectOne(index int, record json.RawMessage, fields []Field) (Row, error) {
	row := make(Row, len(fields))
	for _, f := range fields {
		res := gjson.GetBytes(record, f.Path)
		if !res.Exists() || res.Type == gjson.Null {
			if !f.Optional {
				return nil, &MissingFieldError{Index: index, Field: f}
			}
			row[f.Name] = nil
			continue
		}
		row[f.Name] = res.Value()
	}
	return row, nil
}

// Pluck returns the string at path for every record. Every record must have it.
func Pluck(records []json.RawMessage, path string) ([]string, error) {
	f := Field{Name: path, Path: path}
	out := make([]string, 0, len(records))
	for i, rec := range records {
		res := gjson.GetBytes(rec, path)
		if !res.Exists() || res.Type == gjson.Null {
			return nil, &MissingFieldError{Index: i, Field: f}
		}
		out = append(out, res.String())
	}
	return out, nil
}

// Labels returns a label extractor for [Count] reading the string list at path.
func Labels(path string) func(json.RawMessage) []string {
	return func(rec json.RawMessage) []string {
		res := gjson.GetBytes(rec, path)
		if !res.IsArray() {
			return nil
		}
		arr := res.Array()
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			out = append(out, v.String())
		}
		return out
	}
}
