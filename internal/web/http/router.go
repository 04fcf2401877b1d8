package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/slogx"

	_ "github.com/samimwebdev/jsninja/api/web" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	core      *authn.Core
	sessions  session.Provider
	loginPath string

	// ReadyChecks are run by /readyz, keyed by dependency name.
	ReadyChecks map[string]ReadyCheck
}

func NewRouter(
	core *authn.Core,
	sessions session.Provider,
	loginPath, buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		core:         core,
		sessions:     sessions,
		loginPath:    loginPath,
		ReadyChecks:  map[string]ReadyCheck{},
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProxy()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			jsninja Web API
//	@version		0.1.0
//	@description	Browser facing session endpoints. Tokens never leave the server: the
//	@description	session lives in HttpOnly cookies (or in Redis behind a handle cookie).
//	@description
//	@description	Backend calls under /api are made on behalf of the session and renewed
//	@description	transparently. An unrecoverable session answers 303 to the login page.
//
//	@host			localhost:3000
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Core:      r.core,
		Sessions:  r.sessions,
		LoginPath: r.loginPath,
	}

	// Password step: limited by IP + identifier
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.Login),
			httpx.RateLimitByIPAndBodyField(httpx.LoginLimit, "identifier"),
		),
	)

	// Code guesses are bounded per pending login
	otpLimit := httpx.RateLimitMiddleware(httpx.OTPLimit, httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.CookieKeyExtractor(string(session.KeyPendingAccess)),
		httpx.CookieKeyExtractor(session.HandleCookie),
	))
	r.Mux.Handle("POST /auth/login/verify", httpx.Chain(http.HandlerFunc(h.Verify), otpLimit))
	r.Mux.Handle("POST /auth/login/resend", httpx.Chain(http.HandlerFunc(h.Resend), otpLimit))

	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.Logout),
			httpx.RateLimitByIP(httpx.APILimit),
		),
	)
	r.Mux.Handle("GET /auth/session",
		httpx.Chain(http.HandlerFunc(h.Session),
			httpx.RateLimitByIP(httpx.APILimit),
		),
	)
}

func (r *Router) registerProxy() {
	h := &ProxyHandler{
		Client:   r.core.Client,
		Sessions: r.sessions,
	}

	r.Mux.Handle("/api/{path...}",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.APILimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.ReadyChecks),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
