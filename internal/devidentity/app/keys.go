package app

import (
	"log/slog"

	"github.com/samimwebdev/jsninja/pkg/cryptox"
	"github.com/samimwebdev/jsninja/pkg/jwtx"
)

// initSigner builds the HS256 signer. Without a configured secret a random
// one is generated, so tokens do not survive a restart.
func initSigner(cfg Config, logger *slog.Logger) (*jwtx.HS256, error) {
	secret := cfg.SigningSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.Warn("DEVID_SIGNING_SECRET not set, using an ephemeral signing secret")
	}

	return jwtx.NewHS256([]byte(secret), cfg.Issuer)
}
