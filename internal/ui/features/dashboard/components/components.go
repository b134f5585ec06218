// Package components renders the dashboard fragments patched over SSE.
package components

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/internal/ui/resources"
	"github.com/leapstack-labs/leapviz/pkg/render"
)

// DatastarScript is the client bundle the page loads.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// htmlWriter keeps the first write error so fragments can be written
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) rawf(format string, a ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, a...)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

func fragment(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}

// Page is the full dashboard document.
func Page(title string, isDev bool, snap session.Snapshot) templ.Component {
	return fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		h.raw("<title>")
		h.text(title + " - LeapViz")
		h.raw("</title>")
		h.rawf("<link rel=\"stylesheet\" href=\"%s\">", resources.StaticPath("app.css"))
		h.rawf("<script type=\"module\" src=\"%s\"></script>", DatastarScript)
		h.raw("</head><body data-signals=\"{question: ''}\" data-init=\"@get('/updates')\">")
		if isDev {
			h.raw("<div data-init=\"@get('/reload', {retryMaxCount: 1000, retryInterval: 20, retryMaxWaitMs: 200})\"></div>")
		}
		h.component(ctx, Dashboard(snap))
		h.raw("</body></html>")
	})
}

// Dashboard is the fragment replaced on every session change.
func Dashboard(snap session.Snapshot) templ.Component {
	return fragment(func(ctx context.Context, h *htmlWriter) {
		h.raw("<main id=\"dashboard\" class=\"dashboard\">")
		h.component(ctx, AskForm(snap))
		h.raw("<div class=\"columns\"><aside class=\"sidebar\">")
		h.component(ctx, StepLog(snap))
		h.component(ctx, ChartPicker(snap))
		h.raw("</aside><section class=\"view\">")
		h.component(ctx, View(snap))
		h.raw("</section></div></main>")
	})
}

// AskForm is the question input.
func AskForm(snap session.Snapshot) templ.Component {
	return fragment(func(_ context.Context, h *htmlWriter) {
		h.raw("<form class=\"ask\" data-on:submit__prevent=\"@post('/api/ask')\">")
		h.raw("<input type=\"text\" name=\"question\" data-bind:question placeholder=\"Ask a question about your sales data\" autocomplete=\"off\">")
		if snap.Status == session.StatusRunning {
			h.raw("<button type=\"submit\" disabled>Analyzing…</button>")
		} else {
			h.raw("<button type=\"submit\">Ask</button>")
		}
		h.raw("</form>")
		if snap.Question != "" {
			h.raw("<p class=\"question\">")
			h.text(snap.Question)
			h.raw("</p>")
		}
	})
}

// StepLog lists the progress lines of the active query.
func StepLog(snap session.Snapshot) templ.Component {
	return fragment(func(_ context.Context, h *htmlWriter) {
		h.rawf("<section id=\"steps\" class=\"steps status-%s\"><h3>Progress</h3><ol>", snap.Status)
		for _, s := range snap.Steps {
			h.raw("<li>")
			if s.Node != "" {
				h.raw("<span class=\"node\">")
				h.text(s.Node)
				h.raw("</span> ")
			}
			h.text(s.Text)
			h.raw("</li>")
		}
		h.raw("</ol>")
		if snap.Error != "" {
			h.raw("<p class=\"error\">")
			h.text(snap.Error)
			h.raw("</p>")
		}
		if snap.SQL != "" {
			h.raw("<details><summary>SQL</summary><pre>")
			h.text(snap.SQL)
			h.raw("</pre></details>")
		}
		h.raw("</section>")
	})
}

// ChartPicker lists the ranked chart types with their recommendation marks.
func ChartPicker(snap session.Snapshot) templ.Component {
	return fragment(func(_ context.Context, h *htmlWriter) {
		h.raw("<section id=\"charts\" class=\"charts\"><h3>Charts</h3>")
		if !snap.HasResult {
			h.raw("<p class=\"muted\">Ask a question to see chart options.</p></section>")
			return
		}
		h.raw("<ul>")
		current := snap.Selection.Current
		for _, e := range snap.Charts {
			class := "chart-option"
			if e.Recommended {
				class += " recommended"
			}
			if e.AIPick {
				class += " ai-pick"
			}
			if e.Value == current {
				class += " current"
			}
			h.rawf("<li><button class=\"%s\" data-on:click=\"@post('/api/chart/%s')\">",
				class, url.PathEscape(string(e.Value)))
			h.text(e.Label)
			if mark := present.Mark(e, current); mark != "" {
				h.raw(" <small>")
				h.text(mark)
				h.raw("</small>")
			}
			h.raw("</button></li>")
		}
		h.raw("</ul></section>")
	})
}

// View shows the current instruction: the chart frame with its legend and
// values, or the message, text or table that replaces it.
func View(snap session.Snapshot) templ.Component {
	return fragment(func(_ context.Context, h *htmlWriter) {
		h.raw("<div id=\"view\">")
		defer h.raw("</div>")

		if !snap.HasResult || snap.Instruction == nil {
			if snap.Status == session.StatusRunning {
				h.raw("<p class=\"muted\">Analyzing…</p>")
			} else {
				h.raw("<p class=\"muted\">No results yet.</p>")
			}
			return
		}
		inst := *snap.Instruction
		if inst.Title != "" {
			h.raw("<h2>")
			h.text(inst.Title)
			h.raw("</h2>")
		}

		switch inst.Kind {
		case render.KindMessage:
			h.raw("<div class=\"error\">")
			h.text(inst.Message)
			h.raw("</div>")
			return
		case render.KindText:
			h.raw("<pre class=\"opaque\">")
			h.text(inst.Message)
			h.raw("</pre>")
			return
		case render.KindNoData:
			h.raw("<p class=\"muted\">")
			h.text(inst.Message)
			h.raw("</p>")
			return
		case render.KindChart:
			h.rawf("<p class=\"muted\">%s</p>", templ.EscapeString(present.Describe(inst)))
			h.rawf("<iframe class=\"chart\" title=\"chart\" src=\"/chart?q=%s&amp;t=%s\"></iframe>",
				strconv.FormatUint(uint64(snap.QueryID), 10), url.QueryEscape(string(inst.Type)))
			writeLegend(h, present.Legend(inst))
			if inst.Data.Hint != "" {
				h.raw("<p class=\"hint\">")
				h.text(inst.Data.Hint)
				h.raw("</p>")
			}
		}
		if grid, ok := present.GridOf(inst); ok {
			writeGrid(h, grid)
		}
	})
}

func writeLegend(h *htmlWriter, items []present.LegendItem) {
	if len(items) == 0 {
		return
	}
	h.raw("<ul class=\"legend\">")
	for _, it := range items {
		h.rawf("<li><span class=\"swatch\" style=\"background:%s\"></span>", templ.EscapeString(it.Color))
		h.text(it.Label)
		h.raw("</li>")
	}
	h.raw("</ul>")
}

func writeGrid(h *htmlWriter, g present.Grid) {
	h.raw("<table class=\"grid\"><thead><tr>")
	for _, c := range g.Headers {
		h.raw("<th>")
		h.text(c)
		h.raw("</th>")
	}
	h.raw("</tr></thead><tbody>")
	for _, row := range g.Rows {
		h.raw("<tr>")
		for _, c := range row {
			h.raw("<td>")
			h.text(c)
			h.raw("</td>")
		}
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}
