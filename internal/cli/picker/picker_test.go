package picker

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/recommend"
)

func entries() []recommend.Entry {
	return recommend.RankRegistry([]chart.Type{chart.TypeLine, chart.TypeBar})
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func TestPicker_StartsOnCurrent(t *testing.T) {
	m := New(entries(), chart.TypeBar)

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := m.Chosen()
	require.True(t, ok)
	assert.Equal(t, chart.TypeBar, got)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestPicker_MoveAndPick(t *testing.T) {
	list := entries()
	m := New(list, list[0].Value)

	m, _ = send(t, m,
		tea.WindowSizeMsg{Width: 80, Height: 30},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	got, ok := m.Chosen()
	require.True(t, ok)
	assert.Equal(t, list[1].Value, got)
}

func TestPicker_Cancel(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		m, cmd := send(t, New(entries(), chart.TypeLine), key)
		_, ok := m.Chosen()
		assert.False(t, ok, key.String())
		require.NotNil(t, cmd)
	}
}

func TestItem(t *testing.T) {
	var pick recommend.Entry
	for _, e := range entries() {
		if e.AIPick {
			pick = e
		}
	}
	require.Equal(t, chart.TypeLine, pick.Value)
	it := item{entry: pick, current: chart.TypeLine}

	assert.Contains(t, it.Title(), pick.Label)
	assert.Contains(t, it.Description(), "★ AI pick, current")
	assert.Contains(t, it.FilterValue(), "line")
}

func TestView_ListsCharts(t *testing.T) {
	m := New(entries(), chart.TypeLine)
	view := m.View()
	assert.Contains(t, view, "Pick a chart")
}
