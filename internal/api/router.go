package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Public routes
		r.Post("/chat", apiHandler.ChatHandler)
		r.Get("/chat/history", apiHandler.ChatHistoryHandler)
		r.Get("/kb/search", apiHandler.KBSearchHandler)
		r.Post("/webhook/zalo", apiHandler.ZaloWebhookHandler)

		// Knowledge-base management
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.AdminAuthMiddleware)

			r.Post("/kb/documents", apiHandler.CreateDocumentHandler)
			r.Get("/kb/documents", apiHandler.ListDocumentsHandler)
			r.Delete("/kb/documents/{docID}", apiHandler.DeleteDocumentHandler)
		})
	})

	return r
}
