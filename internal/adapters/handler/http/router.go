package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schoolvote/election/internal/core/domain"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Votes    *VoteHandler
	Posts    *PostHandler
	Backups  *BackupHandler
	Audit    *AuditHandler
	Realtime http.Handler
}

func NewHandler(auth *Authenticator, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if h.Realtime != nil {
		r.Handle("/ws", h.Realtime)
	}

	r.Route("/api", func(r chi.Router) {
		// Receipt verification is public: independent transparency
		// audits must not require credentials.
		r.Get("/votes/verify/{hash}", h.Votes.VerifyReceipt)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/votes", h.Votes.CastVote)

			r.Get("/posts", h.Posts.ListPosts)
			r.Get("/posts/{id}", h.Posts.GetPost)
			r.Get("/posts/{id}/results", h.Posts.GetPostResults)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleAdmin, domain.RoleICTAdmin))
				r.Post("/votes/{id}/verify", h.Votes.VerifyVote)
				r.Post("/votes/{id}/invalidate", h.Votes.InvalidateVote)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleICTAdmin))
				r.Post("/backups", h.Backups.CreateBackup)
				r.Get("/backups", h.Backups.ListBackups)
				r.Post("/backups/{id}/restore", h.Backups.RestoreBackup)
				r.Post("/backups/cleanup", h.Backups.Cleanup)
				r.Get("/audit-logs", h.Audit.ListEntries)
			})
		})
	})

	return r
}
