// surodeals/handlers/router.go

package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(NewStructuredLogger(app))
	mux.Use(middleware.Recoverer)

	mux.Get("/health", MakeHandler(app, HandleHealth))

	mux.Route("/api", func(r chi.Router) {
		r.Use(GlobalRateLimit(app))

		// Public surface
		r.Post("/ads", MakeHandler(app, HandleCreateAd))
		r.Get("/ads", MakeHandler(app, HandleListAds))
		r.Get("/ads/{adID}", MakeHandler(app, HandleGetAd))
		r.Post("/ads/{adID}/contact", MakeHandler(app, HandleContactAd))
		r.Get("/filters/{categorySlug}", MakeHandler(app, HandleGetFilters))
		r.Get("/categories", MakeHandler(app, HandleListCategories))

		r.Post("/auth/register", MakeHandler(app, HandleRegister))
		r.Post("/auth/login", MakeHandler(app, HandleLogin))
		r.Post("/auth/logout", MakeHandler(app, HandleLogout))

		// Moderation decisions ride on GET so they work as email links.
		// Auth (admin session or approval token) is checked in-handler.
		r.Get("/ads/{adID}/approve", MakeHandler(app, HandleApproveAd))
		r.Get("/ads/{adID}/reject", MakeHandler(app, HandleRejectAd))

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(app))
			r.Get("/ads", MakeHandler(app, HandleAdminListAds))
			r.Delete("/ads/{adID}", MakeHandler(app, HandleAdminDeleteAd))
			r.Get("/blacklist", MakeHandler(app, HandleBlacklistWords))
			r.Post("/blacklist/add", MakeHandler(app, HandleBlacklistAdd))
			r.Post("/blacklist/remove", MakeHandler(app, HandleBlacklistRemove))
			r.Get("/blocked-ads/logs", MakeHandler(app, HandleBlockedAdLogs))
			r.Delete("/blocked-ads/logs", MakeHandler(app, HandleClearBlockedAdLogs))
			r.Get("/blocked-ads/stats", MakeHandler(app, HandleBlockedAdStats))
			r.Get("/settings", MakeHandler(app, HandleGetSettings))
			r.Put("/settings", MakeHandler(app, HandlePutSettings))
		})

		r.Route("/cron", func(r chi.Router) {
			r.Use(RequireCronToken(app))
			r.Get("/status", MakeHandler(app, HandleCronStatus))
			r.Post("/{jobName}", MakeHandler(app, HandleCronTrigger))
		})
	})

	return mux
}
