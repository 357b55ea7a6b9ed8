package routes

import (
	"github.com/go-chi/chi/v5"

	"seaborne/voyagedesk/internal/api"
	"seaborne/voyagedesk/internal/config"
	"seaborne/voyagedesk/internal/middleware"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, cfg *config.Config, deps *api.Dependencies, handlers *api.Handlers) {

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, deps.Repo.Users)) // all routes must be authenticated

		// Reads shared by captains and the office; vessel scope is checked per handler
		v1.Get("/reports/{report_id}", handlers.GetReport())
		v1.Get("/voyages/{voyage_id}/reports", handlers.ListVoyageReports())
		v1.Get("/voyages/{voyage_id}/state", handlers.GetVoyageState())
		v1.Get("/voyages/{voyage_id}/export", handlers.ExportVoyage())
		v1.Get("/voyages/{voyage_id}/track", handlers.VoyageTrack())
		v1.Get("/vessels/{vessel_id}/state", handlers.GetVesselState())
		v1.Get("/vessels/{vessel_id}/voyages", handlers.ListVoyageSummaries())

		// Cascade edits: captains within an authorized checklist, office freely
		v1.Post("/reports/{report_id}/cascade/preview", api.PreviewCascadeHandler(deps.Services.Cascade))
		v1.Post("/reports/{report_id}/cascade/apply", api.ApplyCascadeHandler(deps.Services.Cascade))

		// Captain-only group
		v1.Group(func(captain chi.Router) {
			captain.Use(middleware.IsCaptainMiddleware())

			captain.Post("/vessels/{vessel_id}/reports", api.SubmitReportHandler(deps.Services.Submission))
			captain.Post("/reports/{report_id}/resubmit", handlers.ResubmitReport())
		})

		// Office-only group
		v1.Group(func(office chi.Router) {
			office.Use(middleware.IsOfficeMiddleware())

			office.Get("/reports/pending", handlers.ListPendingReports())
			office.Post("/reports/{report_id}/review", handlers.ReviewReport())
			office.Post("/reports/{report_id}/authorize-modification", handlers.AuthorizeModification())
		})
	})
}
