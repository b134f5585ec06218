// Package dashboard is the question-to-chart page: the ask form, the step
// log, the ranked chart picker and the current view of one browser session.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapviz/internal/present"
	"github.com/leapstack-labs/leapviz/internal/session"
	"github.com/leapstack-labs/leapviz/internal/stream"
	"github.com/leapstack-labs/leapviz/internal/ui/features/dashboard/components"
	"github.com/leapstack-labs/leapviz/internal/ui/notifier"
	"github.com/leapstack-labs/leapviz/pkg/chart"
	"github.com/leapstack-labs/leapviz/pkg/render"
)

// CookieName is the gorilla session holding the browser's session id.
const CookieName = "leapviz"

const sessionIDKey = "id"

// Errors reported to the browser console.
var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrRateLimited   = errors.New("too many questions, slow down")
)

// AskSignals represents the signals sent with a question.
type AskSignals struct {
	Question string `json:"question"`
}

// Deps are the collaborators of the dashboard handlers.
type Deps struct {
	// Ctx bounds background analyses; it is the server's lifetime.
	Ctx      context.Context
	Sessions *session.Store
	Cookies  sessions.Store
	Notifier *notifier.Notifier
	Backend  session.Source
	Logger   *slog.Logger
	// Limiter throttles questions per session. Nil disables it.
	Limiter ratelimit.RateLimiter
	// Asks caps concurrent analyses across all sessions. Nil disables it.
	Asks  bulkhead.Bulkhead[stream.Message]
	IsDev bool
}

// Handlers provides HTTP handlers for the dashboard feature.
type Handlers struct {
	Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d Deps) *Handlers {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{Deps: d}
}

// sessionID returns the id stored in the browser's cookie, issuing a new
// one when missing. It must run before anything is written to w.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	cookie, err := h.Cookies.Get(r, CookieName)
	if err != nil {
		// A cookie signed with an old secret decodes with an error but
		// still yields a fresh session.
		h.Logger.Debug("discarding unreadable session cookie", "error", err)
	}
	if id, ok := cookie.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	id, err := h.sessionID(w, r)
	if err != nil {
		return nil, err
	}
	return h.Sessions.GetOrCreate(id)
}

// HomePage renders the dashboard with the session's current state.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := components.Page("Dashboard", h.IsDev, sess.Snapshot()).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Updates is the long-lived SSE endpoint. It does not send the initial
// state, which HomePage already rendered; it patches the dashboard on every
// change of the session.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)

	updates := h.Notifier.Subscribe(sess.ID())
	defer h.Notifier.Unsubscribe(sess.ID(), updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.PatchElementTempl(components.Dashboard(sess.Snapshot())); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Ask starts an analysis for the question signal. The analysis runs in the
// background and reaches the browser through Updates.
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals AskSignals
	readErr := datastar.ReadSignals(r, &signals)

	sess, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)
	if readErr != nil {
		_ = sse.ConsoleError(readErr)
		return
	}

	question := strings.TrimSpace(signals.Question)
	if question == "" {
		_ = sse.ConsoleError(ErrEmptyQuestion)
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(r.Context(), sess.ID()) {
		_ = sse.ConsoleError(ErrRateLimited)
		return
	}

	id := sess.Begin(question)
	go h.run(sess, id, question)

	if err := sse.PatchElementTempl(components.Dashboard(sess.Snapshot())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// run streams query id. A query the bulkhead refuses, or that ends without a
// terminal message, is failed so the session never stays running.
func (h *Handlers) run(sess *session.Session, id stream.QueryID, question string) {
	ask := func(ctx context.Context) (stream.Message, error) {
		return sess.Run(ctx, h.Backend, id, question)
	}

	var (
		m   stream.Message
		err error
	)
	if h.Asks != nil {
		m, err = h.Asks.Execute(h.Ctx, ask)
	} else {
		m, err = ask(h.Ctx)
	}
	if err != nil {
		h.Logger.Warn("analysis ended early", "session", sess.ID(), "query_id", id, "error", err)
		sess.Apply(stream.ErrorMessage(id, err))
		return
	}
	h.Logger.Debug("analysis finished", "session", sess.ID(), "kind", m.Kind)
}

// PickChart applies the user's chart choice.
func (h *Handlers) PickChart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sse := datastar.NewSSE(w, r)

	if err := sess.Pick(chart.Type(chi.URLParam(r, "type"))); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(components.Dashboard(sess.Snapshot())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// ChartPage serves the go-echarts page for the current instruction. The
// dashboard embeds it in an iframe.
func (h *Handlers) ChartPage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	snap := sess.Snapshot()
	inst := render.Instruction{Kind: render.KindNoData, Message: "Ask a question to see a chart"}
	if snap.Instruction != nil {
		inst = *snap.Instruction
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := present.HTML(w, inst); err != nil {
		h.Logger.Error("failed to render chart page", "error", err)
	}
}

// State returns the session snapshot as JSON.
func (h *Handlers) State(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess.Snapshot()); err != nil {
		h.Logger.Error("failed to encode state", "error", err)
	}
}
