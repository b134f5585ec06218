// Package router sets up HTTP routes for the UI server.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapviz/internal/ui/features/dashboard"
	"github.com/leapstack-labs/leapviz/internal/ui/notifier"
	"github.com/leapstack-labs/leapviz/internal/ui/resources"
	"github.com/leapstack-labs/leapviz/pkg/chart"
)

const reloadTopic = "reload"

// Health is the body of GET /healthz.
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Charts   int    `json:"charts"`
	Dev      bool   `json:"dev"`
}

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(router chi.Router, deps dashboard.Deps) error {
	if deps.IsDev {
		setupReload(router, notifier.New())
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Health{
			Status:   "ok",
			Sessions: deps.Sessions.Len(),
			Charts:   len(chart.Selectable()),
			Dev:      deps.IsDev,
		})
	})
	router.Handle("/static/*", resources.Handler())

	return dashboard.SetupRoutes(router, deps)
}

// setupReload adds the dev reload pair: browsers hold GET /reload open and
// reload when something posts to /hotreload.
func setupReload(router chi.Router, reloads *notifier.Notifier) {
	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		ch := reloads.Subscribe(reloadTopic)
		defer reloads.Unsubscribe(reloadTopic, ch)

		sse := datastar.NewSSE(w, r)
		select {
		case <-ch:
			_ = sse.ExecuteScript("window.location.reload()")
		case <-r.Context().Done():
		}
	})

	router.Post("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		n := reloads.Listeners(reloadTopic)
		reloads.Broadcast()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{"reloaded": n})
	})
}
