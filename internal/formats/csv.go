package formats

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jszwec/csvutil"

	"github.com/duanxinyuan/json-utils/internal/jsonutil"
)

// FromCSV decodes CSV with a header row into a slice of T. Columns bind to
// `csv` field tags. Leading spaces in fields are trimmed and blank lines skipped.
func FromCSV[T any](c *Codec, data []byte) ([]T, error) {
	dec, err := csvutil.NewDecoder(c.csvReader(data))
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, c.fail("from csv", CSV, invalid(err))
	}

	var out []T
	for {
		var row T
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, c.fail("from csv", CSV, invalid(err))
		}
		out = append(out, row)
	}
}

// FromCSVFile decodes the CSV file at path into a slice of T.
func FromCSVFile[T any](c *Codec, path string) ([]T, error) {
	data, err := c.readFile("from csv", path, CSV)
	if err != nil {
		return nil, err
	}
	return FromCSV[T](c, data)
}

// ToCSV encodes a struct or a slice of structs as CSV with a header row.
func (c *Codec) ToCSV(v any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = c.comma
	if err := csvutil.NewEncoder(w).Encode(v); err != nil {
		return nil, c.fail("to csv", CSV, fmt.Errorf("%w: %w", jsonutil.ErrUnsupportedValue, err))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, c.fail("to csv", CSV, fmt.Errorf("write: %w", err))
	}
	return buf.Bytes(), nil
}

// ToCSVFile writes v as CSV to path.
func (c *Codec) ToCSVFile(path string, v any) error {
	data, err := c.ToCSV(v)
	if err != nil {
		return err
	}
	return c.writeFile("to csv", path, CSV, data)
}

// ReadCSVRows decodes CSV with a header row into one map per record.
func (c *Codec) ReadCSVRows(data []byte) ([]map[string]string, error) {
	rows, err := c.readRows(data)
	if err != nil {
		return nil, c.fail("read csv rows", CSV, err)
	}
	return rows, nil
}

func (c *Codec) readRows(data []byte) ([]map[string]string, error) {
	r := c.csvReader(data)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, invalid(err)
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, invalid(err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
}

func (c *Codec) csvReader(data []byte) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = c.comma
	r.TrimLeadingSpace = true
	return r
}

// decodeCSV keys each record by its zero based index.
func (c *Codec) decodeCSV(data []byte) (map[string]any, error) {
	rows, err := c.readRows(data)
	if err != nil {
		return nil, err
	}
	tree := make(map[string]any, len(rows))
	for i, row := range rows {
		record := make(map[string]any, len(row))
		for k, v := range row {
			record[k] = v
		}
		tree[strconv.Itoa(i)] = record
	}
	return tree, nil
}

// encodeRows writes a tree whose members are all mappings as CSV. The header
// is the sorted union of member keys and records follow their key order,
// numeric keys first in numeric order.
func (c *Codec) encodeRows(tree map[string]any) ([]byte, error) {
	rows := plain(tree).(map[string]any)
	keys := make([]string, 0, len(rows))
	columns := map[string]struct{}{}
	for k, v := range rows {
		row, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: member %q is %T, want a mapping per record", jsonutil.ErrUnsupportedValue, k, v)
		}
		keys = append(keys, k)
		for col := range row {
			columns[col] = struct{}{}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return rowLess(keys[i], keys[j]) })

	header := make([]string, 0, len(columns))
	for col := range columns {
		header = append(header, col)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = c.comma
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return nil, err
		}
	}
	for _, k := range keys {
		row := rows[k].(map[string]any)
		record := make([]string, len(header))
		for i, col := range header {
			s, err := c.text(row[col])
			if err != nil {
				return nil, err
			}
			record[i] = s
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func rowLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai < bi
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}
