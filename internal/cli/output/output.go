// Package output adapts CLI output to where it is going: styled text on a
// terminal, markdown when piped, JSON on request.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// OutputMode selects how results are written.
type OutputMode string

// Mode is shorthand for OutputMode.
type Mode = OutputMode

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Bold    lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Accent  lipgloss.Style
}

func newStyles(lr *lipgloss.Renderer) Styles {
	return Styles{
		Bold:    lr.NewStyle().Bold(true),
		Title:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366f1")),
		Muted:   lr.NewStyle().Faint(true),
		Success: lr.NewStyle().Foreground(lipgloss.Color("#10b981")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		Info:    lr.NewStyle().Foreground(lipgloss.Color("#3b82f6")),
		Accent:  lr.NewStyle().Foreground(lipgloss.Color("#8b5cf6")),
	}
}

// Renderer writes command output in the configured mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   Mode
	lr     *lipgloss.Renderer
	styles Styles
}

// NewRenderer detects whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, tty, mode)
}

// NewRendererWithTTY builds a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	lr := lipgloss.NewRenderer(out)
	if !isTTY {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		isTTY:  isTTY,
		mode:   mode,
		lr:     lr,
		styles: newStyles(lr),
	}
}

// EffectiveMode resolves auto to text on a terminal and markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles { return r.styles }

// Lipgloss returns the lipgloss renderer bound to stdout.
func (r *Renderer) Lipgloss() *lipgloss.Renderer { return r.lr }

// Writer returns stdout.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns stderr.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeText {
		style := r.styles.Bold
		if level <= 1 {
			style = r.styles.Title
		}
		r.Println(style.Render(text))
		return
	}
	r.Println(FormatHeader(level, text))
	r.Println()
}

// Success writes a success line to stdout.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Success.Render("✓ " + msg))
		return
	}
	r.Println("✓ " + msg)
}

// Error writes an error line to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("Error: ")+msg)
}

// Warning writes a warning line to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("Warning: ")+msg)
}

// Muted renders s dimmed.
func (r *Renderer) Muted(s string) string {
	return r.styles.Muted.Render(s)
}

// StatusLine writes "<icon> name  detail" for a status of success, error,
// warning or skipped.
func (r *Renderer) StatusLine(name, status, detail string) {
	var icon string
	var style lipgloss.Style
	switch status {
	case "success":
		icon, style = "✓", r.styles.Success
	case "error":
		icon, style = "✗", r.styles.Error
	case "warning":
		icon, style = "!", r.styles.Warning
	default:
		icon, style = "-", r.styles.Muted
	}
	line := style.Render(icon) + " " + name
	if detail != "" {
		line += "  " + r.Muted(detail)
	}
	r.Println(line)
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	level = min(max(level, 1), 6)
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// FormatCodeBlock returns a fenced markdown code block.
func FormatCodeBlock(lang, code string) string {
	return "```" + lang + "\n" + strings.TrimRight(code, "\n") + "\n```"
}
