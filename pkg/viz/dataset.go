package viz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// Record maps a column name to a scalar: float64, string, bool or nil.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered sequence of records together with the column order
// they were written in.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }

// NewDataset builds a dataset from records, taking column order from cols
// and appending any key not listed there in sorted first-seen order.
func NewDataset(cols []string, records []Record) Dataset {
	ds := Dataset{Columns: append([]string{}, cols...), Records: records}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, r := range records {
		for _, k := range sortedKeys(r) {
			if !seen[k] {
				seen[k] = true
				ds.Columns = append(ds.Columns, k)
			}
		}
	}
	return ds
}

var errNotRecord = errors.New("data element is not an object")

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// decodeDataset decodes a JSON array of objects, or a single object, keeping
// the order in which keys first appear.
func decodeDataset(raw []byte) (Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return Dataset{}, err
	}

	var ds Dataset
	seen := map[string]bool{}
	add := func(rec Record, keys []string) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				ds.Columns = append(ds.Columns, k)
			}
		}
		ds.Records = append(ds.Records, rec)
	}

	switch tok {
	case json.Delim('['):
		for dec.More() {
			start, err := dec.Token()
			if err != nil {
				return Dataset{}, err
			}
			if start != json.Delim('{') {
				return Dataset{}, errNotRecord
			}
			rec, keys, err := decodeObjectBody(dec)
			if err != nil {
				return Dataset{}, err
			}
			add(rec, keys)
		}
		if _, err := dec.Token(); err != nil {
			return Dataset{}, err
		}
	case json.Delim('{'):
		rec, keys, err := decodeObjectBody(dec)
		if err != nil {
			return Dataset{}, err
		}
		add(rec, keys)
	default:
		return Dataset{}, errNotRecord
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Dataset{}, fmt.Errorf("unexpected trailing data")
	}
	if ds.Records == nil {
		ds.Records = []Record{}
	}
	return ds, nil
}

// decodeObjectBody reads the members of an object whose opening brace has
// already been consumed.
func decodeObjectBody(dec *json.Decoder) (Record, []string, error) {
	rec := Record{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := rec[key]; !dup {
			keys = append(keys, key)
		}
		rec[key] = scalar(v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return rec, keys, nil
}

func scalar(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

// MarshalRecords encodes the records as a JSON array whose object keys follow
// the dataset's column order. Keys absent from a record are omitted.
func (d Dataset) MarshalRecords() (json.RawMessage, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range d.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		n := 0
		for _, col := range d.Columns {
			v, ok := rec[col]
			if !ok {
				continue
			}
			if n > 0 {
				buf.WriteByte(',')
			}
			n++
			k, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
