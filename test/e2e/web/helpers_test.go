//go:build e2e

package web_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	devapp "github.com/samimwebdev/jsninja/internal/devidentity/app"
	webapp "github.com/samimwebdev/jsninja/internal/web/app"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * End-to-end harness: a real Redis in a container, the development identity
 * service and the web front end in process, talking over real HTTP.
 */

const (
	redisImage = "redis:7-alpine"

	seedUsername = "dev"
	seedPassword = "Dev123!"
	seedSecret   = "JBSWY3DPEHPK3PXP"
)

// setupRedisContainer starts Redis and returns its address.
func setupRedisContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return addr
}

type stack struct {
	web   *httptest.Server
	redis *redis.Client

	client *http.Client
}

// setupStack wires devidentity and the web front end with Redis sessions.
func setupStack(t *testing.T) *stack {
	t.Helper()
	redisAddr := setupRedisContainer(t)
	dir := t.TempDir()

	devCfg := devapp.LoadConfig()
	devCfg.Env = "test"
	devCfg.DatabaseFile = filepath.Join(dir, "devidentity.db")
	devCfg.PepperFile = filepath.Join(dir, "pepper")
	devCfg.SigningSecret = strings.Repeat("e2e-secret-", 4)
	devCfg.Seed.Username = seedUsername
	devCfg.Seed.Email = "dev@example.com"
	devCfg.Seed.Password = seedPassword
	devCfg.Seed.TOTPSecret = seedSecret

	dev, err := devapp.New(devCfg)
	require.NoError(t, err)
	devSrv := httptest.NewServer(dev.Handler())
	t.Cleanup(func() {
		devSrv.Close()
		_ = dev.Shutdown()
	})

	webCfg := webapp.LoadConfig()
	webCfg.Env = "dev" // plain http, so cookies cannot be Secure
	webCfg.BackendURL = devSrv.URL
	webCfg.SessionBackend = webapp.SessionBackendRedis
	webCfg.RedisAddr = redisAddr

	web, err := webapp.New(webCfg)
	require.NoError(t, err)
	webSrv := httptest.NewServer(web.Handler())
	t.Cleanup(func() {
		webSrv.Close()
		_ = web.Shutdown()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = rdb.Close() })

	return &stack{
		web:   webSrv,
		redis: rdb,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (s *stack) do(t *testing.T, method, path, body string, header ...string) (*http.Response, string) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, s.web.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

// sessionKeys lists the Redis keys of all sessions.
func (s *stack) sessionKeys(t *testing.T) []string {
	t.Helper()
	keys, err := s.redis.Keys(t.Context(), "websession:*").Result()
	require.NoError(t, err)
	return keys
}
