package authn

import (
	"context"
	"net/http"

	"github.com/samimwebdev/jsninja/pkg/identity"
)

// Identity is the remote identity service as seen by this package.
// *identity.Client implements it.
type Identity interface {
	Login(ctx context.Context, identifier, password string) (*identity.LoginResponse, error)
	VerifyOTP(ctx context.Context, pendingToken, code, method string) (*identity.TokenPair, error)
	ResendOTP(ctx context.Context, pendingToken string) error
	Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error)
	Me(ctx context.Context, accessToken string) (*identity.User, error)
	Send(ctx context.Context, method, path string, body []byte, header http.Header, bearer string) (*identity.Raw, error)
}

var _ Identity = (*identity.Client)(nil)

// Core bundles the components over one identity service.
type Core struct {
	Authenticator *Authenticator
	Verifier      *Verifier
	Client        *Client
	Query         *Query
}

// New wires all components.
func New(api Identity, opts Options) *Core {
	return &Core{
		Authenticator: NewAuthenticator(api, opts),
		Verifier:      NewVerifier(api, opts),
		Client:        NewClient(api, opts),
		Query:         NewQuery(api),
	}
}
