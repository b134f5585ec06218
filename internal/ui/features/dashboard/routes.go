package dashboard

import "github.com/go-chi/chi/v5"

// SetupRoutes configures routes for the dashboard feature.
func SetupRoutes(router chi.Router, d Deps) error {
	handlers := NewHandlers(d)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.Updates)
	router.Get("/chart", handlers.ChartPage)
	router.Route("/api", func(r chi.Router) {
		r.Get("/state", handlers.State)
		r.Post("/ask", handlers.Ask)
		r.Post("/chart/{type}", handlers.PickChart)
	})

	return nil
}
