package adapter

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapviz/pkg/viz"
)

// ScanDataset reads rows into a dataset, keeping the column order of the
// result set. Values are converted to the scalar kinds a viz.Record holds.
// Duplicate column names get a numeric suffix. At most limit rows are read
// when limit > 0.
func ScanDataset(rows *sql.Rows, limit int) (viz.Dataset, error) {
	names, err := rows.Columns()
	if err != nil {
		return viz.Dataset{}, fmt.Errorf("failed to read columns: %w", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return viz.Dataset{}, fmt.Errorf("failed to read column types: %w", err)
	}

	cols := uniqueNames(names)
	dbTypes := make([]string, len(cols))
	for i := range cols {
		if i < len(types) && types[i] != nil {
			dbTypes[i] = strings.ToUpper(types[i].DatabaseTypeName())
		}
	}

	ds := viz.Dataset{Columns: cols, Records: []viz.Record{}}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if limit > 0 && ds.Len() >= limit {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return viz.Dataset{}, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(viz.Record, len(cols))
		for i, c := range cols {
			rec[c] = ConvertValue(vals[i], dbTypes[i])
		}
		ds.Records = append(ds.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return viz.Dataset{}, fmt.Errorf("error iterating rows: %w", err)
	}
	return ds, nil
}

func uniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, n := range names {
		seen[n]++
		if c := seen[n]; c > 1 {
			n = n + "_" + strconv.Itoa(c)
		}
		out[i] = n
	}
	return out
}

// ConvertValue maps a driver value onto float64, string, bool or nil.
// dbType is the upper-cased database type name; DECIMAL and NUMERIC text
// is parsed as a number.
func ConvertValue(v any, dbType string) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case []byte:
		return convertText(string(x), dbType)
	case string:
		return convertText(x, dbType)
	case time.Time:
		return formatTime(x)
	}
	if f, ok := viz.Number(v); ok {
		return f
	}
	if s, ok := v.(fmt.Stringer); ok {
		return convertText(s.String(), dbType)
	}
	return fmt.Sprint(v)
}

func convertText(s, dbType string) any {
	if isDecimal(dbType) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return s
}

func isDecimal(dbType string) bool {
	return strings.HasPrefix(dbType, "DECIMAL") || strings.HasPrefix(dbType, "NUMERIC")
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
