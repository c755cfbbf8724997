package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apphttp "github.com/spec-kit/flight-agent/internal/api/http"
	"github.com/spec-kit/flight-agent/internal/api/http/handlers"
	"github.com/spec-kit/flight-agent/internal/auth"
	"github.com/spec-kit/flight-agent/internal/events"
	"github.com/spec-kit/flight-agent/internal/integrations/search"
	"github.com/spec-kit/flight-agent/internal/observability"
	"github.com/spec-kit/flight-agent/internal/repository"
	"github.com/spec-kit/flight-agent/internal/service"
)

type envelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	store   *service.UserStore
	metrics *observability.Metrics
}

type serverOptions struct {
	flightsURL    string
	placesURL     string
	searchTimeout time.Duration
	deps          map[string]handlers.Pinger
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	if opts.flightsURL == "" {
		opts.flightsURL = "http://127.0.0.1:1"
	}
	if opts.placesURL == "" {
		opts.placesURL = "http://127.0.0.1:1"
	}
	if opts.searchTimeout == 0 {
		opts.searchTimeout = time.Second
	}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	repo := repository.NewMemoryUserRepository()
	store := service.NewUserStore(repo, time.Second, bcrypt.MinCost)
	tokens := auth.NewTokenManager("handler-secret", auth.DefaultTokenTTL)
	authSvc := service.NewAuthService(store, tokens, events.NewInMemoryDispatcher(), logger)

	flights := search.NewClient(search.Endpoint{
		Name:    "flights",
		URL:     opts.flightsURL,
		Headers: map[string]string{"apikey": "test-key"},
	}, search.WithTimeout(opts.searchTimeout))
	places := search.NewClient(search.Endpoint{Name: "places", URL: opts.placesURL}, search.WithTimeout(opts.searchTimeout))

	deps := opts.deps
	if deps == nil {
		deps = map[string]handlers.Pinger{"store": store}
	}

	app := fiber.New()
	apphttp.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	apphttp.RegisterRoutes(app, apphttp.RouteConfig{
		Health:         handlers.NewHealthHandler("flight-agent", "test", deps, metrics),
		Auth:           handlers.NewAuthHandler(authSvc),
		Admin:          handlers.NewAdminHandler(authSvc),
		Search:         handlers.NewSearchHandler(flights, places),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, tokens: tokens, store: store, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, target string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }
