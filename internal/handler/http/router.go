package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/contactevin2u/AAHRMS-sub010/internal/config"
	"github.com/contactevin2u/AAHRMS-sub010/internal/handler/http/middleware"
	"github.com/contactevin2u/AAHRMS-sub010/internal/pkg/jwt"
)

func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	payrunHandler PayrunHandler,
	resignationHandler ResignationHandler,
	contributionHandler ContributionHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "aahrms-payroll"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/payroll-runs", func(r chi.Router) {
				r.Post("/", payrunHandler.CreateRun)
				r.Get("/", payrunHandler.ListRuns)
				r.Post("/generate/departments", payrunHandler.CreateAllDepartments)
				r.Post("/generate/outlets", payrunHandler.CreateAllOutlets)

				r.Route("/{runID}", func(r chi.Router) {
					r.Get("/", payrunHandler.GetRun)
					r.Delete("/", payrunHandler.DeleteRun)
					r.Post("/recalculate", payrunHandler.RecalculateRun)
					r.Post("/finalize", payrunHandler.FinalizeRun)
					r.Post("/changes", payrunHandler.ApplyChangeSet)

					r.Get("/contributions", contributionHandler.Summary)
					r.Get("/contributions/details", contributionHandler.Details)
					r.Get("/bank-transfer", contributionHandler.BankTransfer)
				})
			})

			r.Route("/payroll-items/{itemID}", func(r chi.Router) {
				r.Put("/", payrunHandler.UpdateItem)
				r.Delete("/", payrunHandler.DeleteItem)
				r.Post("/recalculate", payrunHandler.RecalculateItem)
			})

			r.Get("/reports/contributions/yearly", contributionHandler.YearlyReport)

			r.Route("/resignations", func(r chi.Router) {
				r.Post("/", resignationHandler.Create)
				r.Get("/", resignationHandler.List)

				r.Route("/{resignationID}", func(r chi.Router) {
					r.Get("/", resignationHandler.Get)
					r.Delete("/", resignationHandler.Delete)
					r.Post("/calculate", resignationHandler.CalculateSettlement)
					r.Get("/leaves", resignationHandler.CheckLeaves)
					r.Post("/process", resignationHandler.Process)
					r.Post("/cancel", resignationHandler.Cancel)
					r.Post("/cleanup-leaves", resignationHandler.CleanupLeaves)
				})
			})
		})
	})
	return r
}
