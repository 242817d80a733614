package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tutorlink-api/internal/application/auth"
	"github.com/tutorlink-api/internal/application/directory"
	"github.com/tutorlink-api/internal/application/institution"
	"github.com/tutorlink-api/internal/application/profile"
	"github.com/tutorlink-api/internal/config"
	"github.com/tutorlink-api/internal/domain"
	"github.com/tutorlink-api/internal/pkg/otp"
	pkgtoken "github.com/tutorlink-api/internal/pkg/token"
	"github.com/tutorlink-api/internal/transport/http/handler"
	appmiddleware "github.com/tutorlink-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10, applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:        deps.UserRepo,
		RefreshRepo:     deps.RefreshTokenRepo,
		ResetRepo:       deps.PasswordResetRepo,
		Mailer:          deps.Mailer,
		SMSSender:       deps.SMSSender,
		JWTProvider:     deps.JWTProvider,
		OTPEngine:       otp.NewEngine(cfg.TokenHashSecret),
		Fingerprinter:   pkgtoken.NewFingerprinter(cfg.TokenHashSecret),
		RefreshTokenDur: time.Duration(cfg.RefreshTokenExpiryDays) * 24 * time.Hour,
		OTPTTL:          cfg.OTPTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
		FrontendBaseURL: cfg.FrontendBaseURL,
		DevMode:         cfg.IsDevelopment(),
	})
	profileSvc := profile.NewService(deps.TeacherProfileRepo, deps.UserRepo, deps.S3Store)
	institutionSvc := institution.NewService(deps.InstitutionRepo)
	directorySvc := directory.NewService(deps.StudentRepo, deps.ParentRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, deps.UserRepo)
	profileH := handler.NewProfileHandler(profileSvc)
	institutionH := handler.NewInstitutionHandler(institutionSvc)
	directoryH := handler.NewDirectoryHandler(directorySvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/signup", authH.Signup)
		r.With(sensitiveRL.Limit).Post("/auth/verify-email", authH.VerifyEmail)
		r.With(sensitiveRL.Limit).Post("/auth/resend-otp", authH.ResendEmailOTP)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/forgot-password", authH.ForgotPassword)
		r.With(sensitiveRL.Limit).Post("/auth/reset-password", authH.ResetPassword)
		r.Post("/auth/refresh", authH.Refresh)
		r.Post("/auth/logout", authH.Logout)

		r.Get("/institutions/{id}", institutionH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Post("/auth/phone/request-otp", authH.RequestPhoneOTP)
			r.Post("/auth/phone/verify", authH.VerifyPhone)

			// Any authenticated user
			r.Get("/profiles/me", profileH.GetMine)
			r.Get("/profiles/{userID}", profileH.Get)
			r.Get("/students", directoryH.ListStudents)
			r.Get("/students/{id}", directoryH.GetStudent)
			r.Get("/parents/{id}", directoryH.GetParent)
			r.Get("/institutions/me/profile", institutionH.GetMine)

			// Tutors and teachers maintain a teaching profile
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleTutor, domain.RoleTeacher))

				r.Put("/profiles/me", profileH.Upsert)
				r.Post("/profiles/me/assets/{kind}", profileH.UploadAsset)
			})

			// Institute accounts manage their institution
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleInstitute))

				r.Post("/institutions", institutionH.Create)
				r.Put("/institutions/{id}", institutionH.Update)
				r.Delete("/institutions/{id}", institutionH.Delete)
			})

			// Directory records: students register themselves, parents and
			// institutes register on a child's behalf.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleStudent, domain.RoleParent, domain.RoleInstitute))

				r.Post("/students", directoryH.CreateStudent)
			})
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleParent))

				r.Post("/parents", directoryH.CreateParent)
				r.Post("/parents/{id}/children", directoryH.LinkChild)
			})
		})
	})

	return r
}
