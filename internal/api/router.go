package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/skillsync/skillsync/internal/logger"
	"github.com/skillsync/skillsync/internal/store"
)

func NewRouter(apiHandler *APIHandler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger.OrNop(log)))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Route("/internships", func(r chi.Router) {
				r.With(RequireRole(store.RoleCompany)).Post("/", apiHandler.CreateInternshipHandler)
				r.Get("/{internshipID}", apiHandler.GetInternshipHandler)
				r.With(RequireRole(store.RoleCompany)).Post("/{internshipID}/close", apiHandler.CloseInternshipHandler)
				r.With(RequireRole(store.RoleCompany)).Get("/{internshipID}/candidates", apiHandler.CandidatesHandler)
				r.With(RequireRole(store.RoleStudent)).Post("/{internshipID}/applications", apiHandler.ApplyHandler)
			})

			r.With(RequireRole(store.RoleCompany)).Get("/companies/me/internships", apiHandler.ListCompanyInternshipsHandler)
			r.Post("/companies/{companyID}/follow", apiHandler.FollowCompanyHandler)
			r.Delete("/companies/{companyID}/follow", apiHandler.UnfollowCompanyHandler)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(store.RoleStudent))
				r.Put("/students/me/resume", apiHandler.SaveResumeHandler)
				r.Get("/students/me/recommendations", apiHandler.RecommendationsHandler)
			})

			r.Post("/topics/extract", apiHandler.ExtractTopicsHandler)
			r.Get("/topics", apiHandler.ListTopicsHandler)
			r.Post("/topics/{topicID}/follow", apiHandler.FollowTopicHandler)
			r.Delete("/topics/{topicID}/follow", apiHandler.UnfollowTopicHandler)

			r.Get("/notifications", apiHandler.ListNotificationsHandler)
			r.Get("/notifications/stream", apiHandler.NotificationStreamHandler)
			r.Post("/notifications/{notificationID}/read", apiHandler.MarkNotificationReadHandler)
		})
	})

	return r
}
