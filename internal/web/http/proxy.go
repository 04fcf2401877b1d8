package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/samimwebdev/jsninja/internal/authn"
	"github.com/samimwebdev/jsninja/internal/session"
	"github.com/samimwebdev/jsninja/pkg/httpx"
	"github.com/samimwebdev/jsninja/pkg/slogx"
)

const (
	// HeaderEmptyOnNotFound opts a proxied call in to empty-on-404.
	HeaderEmptyOnNotFound = "X-Empty-On-Not-Found"
	// HeaderEmptyResult marks the 204 answer for such a 404.
	HeaderEmptyResult = "X-Empty-Result"
)

// Request headers passed to the backend. Authorization is always set from
// the session, never from the browser.
var forwardedRequestHeaders = []string{
	"Accept",
	"Accept-Language",
	"Content-Type",
	"If-None-Match",
	slogx.RequestIDHeader,
}

// Cache-Control is not relayed: proxied answers are always no-store.
var forwardedResponseHeaders = []string{
	"Content-Type",
	"ETag",
	"Last-Modified",
}

// ProxyHandler relays /api/{path...} to the backend on behalf of the session.
type ProxyHandler struct {
	Client   *authn.Client
	Sessions session.Provider
}

// ServeHTTP godoc
//
//	@Summary		Authenticated backend call
//	@Description	Relays the request to the backend with the session's access token. A 401
//	@Description	is answered by renewing the session once and replaying once. If that is
//	@Description	not possible the browser is sent to the login page.
//	@Description
//	@Description	With X-Empty-On-Not-Found: true a backend 404 becomes 204 with X-Empty-Result: true.
//	@Tags			API
//	@Param			path					path	string	true	"Backend path, e.g. v1/progress/js-basics"
//	@Param			X-Empty-On-Not-Found	header	bool	false	"Answer 204 instead of 404"
//	@Success		200						"Backend response"
//	@Success		204						"Empty result"
//	@Failure		303						"Session expired, redirect to login"
//	@Failure		502						{object}	ErrorResponse	"Backend unreachable"
//	@Router			/api/{path} [get].
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	// Token endpoints stay behind the session handlers.
	if path == "" || strings.HasPrefix(path, "v1/auth/") {
		httpx.WriteError(w, http.StatusNotFound, codeNotFound, "Not found")
		return
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, codeInvalidRequest, "Request body too large")
			return
		}
		if len(body) == 0 {
			body = nil
		}
	}

	header := http.Header{}
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}

	target := "/" + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	store := h.Sessions.Open(w, r)
	resp, err := h.Client.Do(r.Context(), store, &authn.Request{
		Method:          r.Method,
		Path:            target,
		Body:            body,
		Header:          header,
		NotFoundAsEmpty: strings.EqualFold(r.Header.Get(HeaderEmptyOnNotFound), "true"),
		ErrorsAsData:    true,
	})
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	httpx.NoCache(w)
	if resp.Empty {
		w.Header().Set(HeaderEmptyResult, "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	for _, name := range forwardedResponseHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
