package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samimwebdev/jsninja/internal/devidentity/service"
	"github.com/samimwebdev/jsninja/internal/devidentity/store"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/jwtx"
	"github.com/samimwebdev/jsninja/pkg/slogx"

	devidentitydocs "github.com/samimwebdev/jsninja/api/devidentity"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	AuthService     *service.AuthService
	UserService     *service.UserService
	ProgressService *service.ProgressService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerProgress()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.InstanceName(devidentitydocs.SwaggerInfo.InstanceName())))
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			jsninja Development Identity Service API
//	@version		0.1.0
//	@description	Local stand-in for the identity and content backend used by the web front end.
//	@description	Password login is followed by a TOTP or emailed one-time code. Tokens are HS256 JWTs.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Pending or access JWT. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /login - strict rate limit by IP + identifier
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndBodyField(httpx.LoginLimit, "identifier"),
		),
	)

	// One-time code endpoints only accept pending tokens and are limited
	// per login ticket.
	r.Mux.Handle("POST /v1/auth/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.AuthnMiddleware(r.verifier, jwtx.TokenPending),
			httpx.RateLimitMiddleware(httpx.OTPLimit, ticketKeyExtractor),
		),
	)
	r.Mux.Handle("POST /v1/auth/otp/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.AuthnMiddleware(r.verifier, jwtx.TokenPending),
			httpx.RateLimitMiddleware(httpx.OTPLimit, ticketKeyExtractor),
		),
	)

	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.APILimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{UserService: r.UserService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier, jwtx.TokenAccess),
			httpx.RateLimitByUser(httpx.APILimit),
		)
	}

	r.Mux.Handle("GET /v1/users/me", secured(h.HandleMe))
	r.Mux.Handle("POST /v1/users/me/totp", secured(h.HandleEnrollTOTP))
	r.Mux.Handle("POST /v1/users/me/totp/confirm", secured(h.HandleConfirmTOTP))
}

func (r *Router) registerProgress() {
	h := &ProgressHandler{ProgressService: r.ProgressService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier, jwtx.TokenAccess),
			httpx.RateLimitByUser(httpx.APILimit),
		)
	}

	r.Mux.Handle("GET /v1/progress/{course}", secured(h.HandleGet))
	r.Mux.Handle("PUT /v1/progress/{course}", secured(h.HandlePut))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	checks := map[string]func(context.Context) error{
		"database": r.store.Ping,
	}
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, checks),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

// ticketKeyExtractor keys rate limits by the login ticket of a pending token.
func ticketKeyExtractor(r *http.Request) string {
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok && claims.SID != "" {
		return "ticket:" + claims.SID
	}
	return httpx.IPKeyExtractor(r)
}
