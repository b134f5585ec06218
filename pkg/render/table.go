package render

import "github.com/leapstack-labs/leapviz/pkg/viz"

// NullText is shown for nil cells.
const NullText = "NULL"

// TableView is the tabular fallback: ordered headers and stringified cells.
type TableView struct {
	Columns []string   `json:"columns"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Table builds the tabular view of n. It works for every family.
func Table(n viz.Normalized) TableView {
	cols := n.Columns()
	t := TableView{
		Columns: append([]string{}, cols...),
		Headers: make([]string, len(cols)),
		Rows:    make([][]string, len(n.Rows())),
	}
	for i, c := range cols {
		t.Headers[i] = Humanize(c)
	}
	for i, row := range n.Rows() {
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = Cell(row[c])
		}
		t.Rows[i] = cells
	}
	return t
}

// Cell stringifies one value for table display.
func Cell(v any) string {
	if v == nil {
		return NullText
	}
	return viz.Text(v)
}
