package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// SalesData is a small monthly sales result with two metrics.
const SalesData = `[{"month":"Jan","total_sales":120000,"orders":40},{"month":"Feb","total_sales":95000,"orders":31},{"month":"Mar","total_sales":130000,"orders":45}]`

// SalesResult is an analysis result over SalesData.
func SalesResult(question string) map[string]any {
	return map[string]any{
		"question":  question,
		"sql_query": "SELECT month, SUM(total) AS total_sales, COUNT(*) AS orders FROM orders GROUP BY month",
		"results":   SalesData,
		"visualization_config": map[string]any{
			"type":               "bar",
			"title":              "Monthly Sales",
			"xKey":               "month",
			"yKey":               "total_sales",
			"data":               json.RawMessage(SalesData),
			"recommended_charts": []string{"line", "bar", "area"},
		},
		"steps": []string{"Writing SQL...", "Executing query..."},
	}
}

// Backend is a scripted analysis service.
type Backend struct {
	*httptest.Server

	mu        sync.Mutex
	questions []string
	// Result builds the result for a question. Defaults to SalesResult.
	Result func(question string) map[string]any
	// Fail, when set, is streamed as an error event instead of a result.
	Fail string
}

// NewBackend starts a scripted backend that is closed with the test.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{Result: SalesResult}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok", "service": "sales-analysis", "version": "test"})
	})
	r.Get("/schema", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"schema_info": "orders(id, customer_id, order_date, total_amount)"})
	})
	r.Post("/analyze", func(w http.ResponseWriter, r *http.Request) {
		q, ok := b.question(w, r)
		if !ok {
			return
		}
		if fail := b.failure(); fail != "" {
			http.Error(w, fail, http.StatusInternalServerError)
			return
		}
		writeJSON(w, b.Result(q))
	})
	r.Post("/analyze/stream", func(w http.ResponseWriter, r *http.Request) {
		q, ok := b.question(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, step := range []string{"Writing SQL...", "Executing query..."} {
			writeEvent(w, map[string]any{"type": "step", "data": step, "node": "executor"})
		}
		if fail := b.failure(); fail != "" {
			writeEvent(w, map[string]any{"type": "error", "data": fail})
			return
		}
		writeEvent(w, map[string]any{"type": "result", "data": b.Result(q)})
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

// Questions returns the questions received so far.
func (b *Backend) Questions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.questions...)
}

// SetFail makes later analyses fail with msg.
func (b *Backend) SetFail(msg string) {
	b.mu.Lock()
	b.Fail = msg
	b.mu.Unlock()
}

func (b *Backend) failure() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Fail
}

func (b *Backend) question(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, `{"detail":"question is required"}`, http.StatusBadRequest)
		return "", false
	}
	b.mu.Lock()
	b.questions = append(b.questions, req.Question)
	b.mu.Unlock()
	return req.Question, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvent(w http.ResponseWriter, v any) {
	raw, _ := json.Marshal(v)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", raw)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
