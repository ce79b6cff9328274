package rest

import (
	"net/http"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/logging"
	"github.com/anshc022/imf-gadget-api/internal/server/auth"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterOptions tunes the cross-cutting middleware.
type RouterOptions struct {
	// RateLimitRequests per RateLimitWindow per client IP. Zero disables
	// the limiter.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

// NewRouter mounts the API routes.
//
//	POST   /users/register
//	POST   /users/login
//	GET    /users/me
//	PATCH  /users/me
//	POST   /users/me/change-password
//	POST   /admin/create                  admin
//	GET    /gadgets                       any role
//	POST   /gadgets                       admin, technician
//	PATCH  /gadgets/{id}                  admin, technician
//	DELETE /gadgets/{id}                  admin
//	POST   /gadgets/{id}/self-destruct    admin, agent
//	POST   /gadgets/{id}/maintenance      admin, technician
//	GET    /health
func NewRouter(h *Handler, logger logging.Logger, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	if opts.RateLimitRequests > 0 {
		r.Use(httprate.Limit(
			opts.RateLimitRequests,
			opts.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(tooManyRequests),
		))
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		MaxAge:         300,
	}))

	r.Use(WithRequestLogging(logger))

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.NotFound(notFound)

	r.Get("/health", h.Health)

	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Get("/me", h.Me)
			r.Patch("/me", h.UpdateMe)
			r.Post("/me/change-password", h.ChangePassword)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.With(h.RequireOp(auth.OpCreateAdmin)).Post("/create", h.CreateAdmin)
	})

	r.Route("/gadgets", func(r chi.Router) {
		r.Use(h.Authenticate)

		r.With(h.RequireOp(auth.OpListGadgets)).Get("/", h.ListGadgets)
		r.With(h.RequireOp(auth.OpCreateGadget)).Post("/", h.CreateGadget)

		r.Route("/{id}", func(r chi.Router) {
			r.With(h.RequireOp(auth.OpUpdateGadget)).Patch("/", h.UpdateGadget)
			r.With(h.RequireOp(auth.OpDecommissionGadget)).Delete("/", h.DecommissionGadget)
			r.With(h.RequireOp(auth.OpSelfDestructGadget)).Post("/self-destruct", h.SelfDestructGadget)
			r.With(h.RequireOp(auth.OpMaintainGadget)).Post("/maintenance", h.MaintainGadget)
		})
	})

	return r
}
