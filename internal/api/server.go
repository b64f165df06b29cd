package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/leanivr/leanivr/internal/api/middleware"
	"github.com/leanivr/leanivr/internal/config"
	"github.com/leanivr/leanivr/internal/database"
	"github.com/leanivr/leanivr/internal/ivr"
)

// Server holds HTTP handler dependencies and the chi router.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	machine *ivr.Machine

	users      database.UserRepository
	recipients database.RecipientRepository
	campaigns  database.CampaignRepository
	invoices   database.InvoiceRepository
	payments   database.PaymentRepository
	recordings database.RecordingRepository
	sysConfig  database.SystemConfigRepository

	jwtSecret     []byte
	ttsDir        string
	recordingsDir string

	ivrLimiter  *middleware.IPRateLimiter
	authLimiter *middleware.IPRateLimiter

	metricsHandler http.Handler
}

// NewServer creates the HTTP handler with all routes mounted.
// metricsHandler may be nil to disable the /metrics endpoint.
func NewServer(
	cfg *config.Config,
	db *database.DB,
	machine *ivr.Machine,
	sysConfig database.SystemConfigRepository,
	jwtSecret []byte,
	ttsDir, recordingsDir string,
	metricsHandler http.Handler,
) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		cfg:            cfg,
		machine:        machine,
		users:          database.NewUserRepository(db),
		recipients:     database.NewRecipientRepository(db),
		campaigns:      database.NewCampaignRepository(db),
		invoices:       database.NewInvoiceRepository(db),
		payments:       database.NewPaymentRepository(db),
		recordings:     database.NewRecordingRepository(db),
		sysConfig:      sysConfig,
		jwtSecret:      jwtSecret,
		ttsDir:         ttsDir,
		recordingsDir:  recordingsDir,
		metricsHandler: metricsHandler,
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops the rate limiter cleanup goroutines. Call it after the
// HTTP server has shut down.
func (s *Server) Close() {
	s.ivrLimiter.Stop()
	s.authLimiter.Stop()
}

// routes configures all middleware and mounts all route groups.
func (s *Server) routes() {
	r := s.router

	// Global middleware stack.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CORS(middleware.ParseCORSOrigins(s.cfg.CORSOrigins)))

	s.ivrLimiter = middleware.NewIPRateLimiter(middleware.DefaultRateLimitConfig())
	s.authLimiter = middleware.NewIPRateLimiter(middleware.AuthRateLimitConfig())

	// Caller-facing IVR surface. Response shapes here are fixed for
	// client compatibility; no envelope.
	r.Route("/ivr", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.ivrLimiter))
		r.Post("/start", s.handleIVRStart)
		r.Post("/options", s.handleIVROption)
		r.Post("/record", s.handleIVRRecord)
	})

	// Synthesized prompt audio referenced by IVR responses, and
	// playback of captured caller clips.
	r.Get("/audio/tts/{file}", s.handleTTSAudio)
	r.Get("/audio/recordings/{file}", s.handleRecordingAudio)

	if s.metricsHandler != nil {
		r.Get("/metrics", s.metricsHandler.ServeHTTP)
	}

	// Operator management API.
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.authLimiter))
			r.Post("/setup", s.handleSetup)
			r.Post("/auth/login", s.handleLogin)
		})

		// Authenticated operator routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwtSecret))

			r.Get("/auth/me", s.handleMe)

			r.Get("/kyc", s.handleGetKYC)
			r.Put("/kyc", s.handleUpdateKYC)

			r.Route("/recipients", func(r chi.Router) {
				r.Get("/", s.handleListRecipients)
				r.Post("/", s.handleCreateRecipient)
				r.Post("/import", s.handleImportRecipients)
				r.Get("/export", s.handleExportRecipients)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRecipient)
					r.Put("/", s.handleUpdateRecipient)
					r.Delete("/", s.handleDeleteRecipient)
				})
			})

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", s.handleListCampaigns)
				r.Post("/", s.handleCreateCampaign)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetCampaign)
					r.Put("/", s.handleUpdateCampaign)
					r.Delete("/", s.handleDeleteCampaign)
				})
			})

			r.Post("/ivr/call", s.handleDialCall)

			r.Get("/invoices", s.handleListInvoices)
			r.Post("/invoices", s.handleCreateInvoice)
			r.Post("/payments/create", s.handleCreateOrder)
			r.Post("/payments/verify", s.handleVerifyPayment)

			r.Route("/recordings", func(r chi.Router) {
				r.Get("/", s.handleListRecordings)
				r.Get("/{id}/download", s.handleDownloadRecording)
				r.Delete("/{id}", s.handleDeleteRecording)
			})

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)
		})
	})

	slog.Info("api routes mounted")
}

// handleHealth returns basic health status. Unauthenticated.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
