// Package picker is an interactive terminal chart selector.
package picker

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
)

const (
	defaultWidth  = 60
	defaultHeight = 20
)

type item struct {
	entry   recommend.Entry
	current chart.Type
}

func (i item) Title() string {
	return fmt.Sprintf("%s %s", i.entry.Icon, i.entry.Label)
}

func (i item) Description() string {
	d := fmt.Sprintf("%s · %s", i.entry.Value, i.entry.Family)
	if mark := present.Mark(i.entry, i.current); mark != "" {
		d += " · " + mark
	}
	return d
}

func (i item) FilterValue() string {
	return string(i.entry.Value) + " " + i.entry.Label
}

// Model is the bubbletea model of the picker.
type Model struct {
	list   list.Model
	chosen chart.Type
	done   bool
}

// New builds a picker over the ranked entries with the cursor on current.
func New(entries []recommend.Entry, current chart.Type) Model {
	items := make([]list.Item, len(entries))
	selected := 0
	for i, e := range entries {
		items[i] = item{entry: e, current: current}
		if e.Value == current {
			selected = i
		}
	}

	l := list.New(items, list.NewDefaultDelegate(), defaultWidth, defaultHeight)
	l.Title = "Pick a chart"
	l.Select(selected)
	return Model{list: l}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// Keys belong to the filter input while it is open.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(item); ok {
				m.chosen = it.entry.Value
			}
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}
	return m.list.View()
}

// Chosen returns the picked chart; false when the picker was cancelled.
func (m Model) Chosen() (chart.Type, bool) {
	return m.chosen, m.chosen != ""
}

// Run shows the picker on in/out until the user picks or cancels.
func Run(ctx context.Context, in io.Reader, out io.Writer, entries []recommend.Entry, current chart.Type) (chart.Type, bool, error) {
	p := tea.NewProgram(New(entries, current),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return "", false, fmt.Errorf("chart picker: %w", err)
	}
	t, ok := final.(Model).Chosen()
	return t, ok, nil
}
