package httpapi

import (
	"context"
	"net/http"
	"time"

	"freeradical-go/internal/config"
	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

const limiterIdleTTL = 10 * time.Minute

type Server struct {
	DB         *sqlx.DB
	Config     config.Config
	Tokens     services.TokenService
	MetricsHub *services.MetricsHub
	Blobs      services.BlobStore
	Sender     *services.WebhookSender
	Webhooks   *services.WebhookDispatcher
	Limiter    *RateLimiter
}

// NewServer wires the default collaborators. Webhooks stays nil until the
// caller starts a dispatcher; events are dropped without one.
func NewServer(db *sqlx.DB, cfg config.Config, hub *services.MetricsHub, blobs services.BlobStore) *Server {
	tokens := services.TokenService{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}
	if blobs == nil {
		blobs = services.DiskStore{Base: cfg.MediaStoragePath, CDNPrefix: cfg.CDNBaseURL}
	}
	var limiter *RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	return &Server{
		DB:         db,
		Config:     cfg,
		Tokens:     tokens,
		MetricsHub: hub,
		Blobs:      blobs,
		Sender:     services.NewWebhookSender(db, 10*time.Second),
		Limiter:    limiter,
	}
}

func (s *Server) Router(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerAPIKey},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.Recoverer)
	if s.Limiter != nil {
		go s.Limiter.Sweep(ctx, time.Minute, limiterIdleTTL)
		r.Use(s.Limiter.Middleware(s.Config.APIKeys))
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/login", s.Login)
		api.Post("/auth/login", s.Login)
		api.Post("/logout", s.Logout)
		api.Post("/auth/logout", s.Logout)

		api.Get("/health", s.Health)
		api.Get("/search", s.Search)
		api.Post("/analytics/visits", s.TrackVisit)

		api.Get("/pages", s.ListPages)
		api.Get("/pages/{id}", s.GetPage)
		api.Get("/modules", s.ListModules)
		api.Get("/modules/{id}", s.GetModule)
		api.Get("/media", s.ListMedia)
		api.Get("/media/{id}", s.GetMedia)
		api.Get("/media/{id}/content", s.MediaContent)
		api.Get("/categories", s.ListCategories)
		api.Get("/categories/{id}", s.GetCategory)
		api.Get("/relationships/{type}/{id}", s.Related)

		api.Group(func(authed chi.Router) {
			authed.Use(WithAuth(s.Tokens, s.Config.APIKeys))
			authed.Get("/users/me", s.Me)

			authed.Post("/pages", s.CreatePage)
			authed.Put("/pages/{id}", s.UpdatePage)
			authed.Delete("/pages/{id}", s.DeletePage)

			authed.Post("/modules", s.CreateModule)
			authed.Put("/modules/{id}", s.UpdateModule)
			authed.Delete("/modules/{id}", s.DeleteModule)

			authed.Post("/media/upload", s.UploadMedia)
			authed.Delete("/media/{id}", s.DeleteMedia)

			authed.Post("/categories", s.CreateCategory)
			authed.Put("/categories/{id}", s.UpdateCategory)
			authed.Delete("/categories/{id}", s.DeleteCategory)

			authed.Post("/relationships", s.CreateRelationship)
			authed.Delete("/relationships/{id}", s.DeleteRelationship)

			authed.Route("/webhooks", func(hooks chi.Router) {
				hooks.Get("/", s.ListWebhooks)
				hooks.Post("/", s.CreateWebhook)
				hooks.Get("/{id}", s.GetWebhook)
				hooks.Put("/{id}", s.UpdateWebhook)
				hooks.Delete("/{id}", s.DeleteWebhook)
				hooks.Post("/{id}/test", s.TestWebhook)
				hooks.Get("/{id}/logs", s.WebhookLogs)
			})

			authed.Get("/analytics/summary", s.AnalyticsSummary)
			authed.Get("/metrics", s.Metrics)
			authed.Get("/metrics/history", s.MetricsHistory)
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}

// publish hands a content event to the webhook dispatcher, if one runs.
func (s *Server) publish(event string, data any) {
	if s.Webhooks != nil {
		s.Webhooks.Publish(event, data)
	}
}
