package httpapi

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	authhandler "github.com/Aleksandr505/Confa/internal/auth/handler"
	authservice "github.com/Aleksandr505/Confa/internal/auth/service"
	"github.com/Aleksandr505/Confa/internal/auth/token"
	banhandler "github.com/Aleksandr505/Confa/internal/ipban/handler"
	ipbanservice "github.com/Aleksandr505/Confa/internal/ipban/service"
	banstore "github.com/Aleksandr505/Confa/internal/ipban/store/ban"
	counterstore "github.com/Aleksandr505/Confa/internal/ipban/store/counter"
	"github.com/Aleksandr505/Confa/internal/platform/config"
	"github.com/Aleksandr505/Confa/internal/ratelimit/bucket"
	userstore "github.com/Aleksandr505/Confa/internal/user/store"
)

type RouterSuite struct {
	suite.Suite

	codec  *token.Codec
	health map[string]HealthChecker
}

func (s *RouterSuite) SetupTest() {
	s.codec = token.NewCodec(config.JWTConfig{
		Issuer:            "confa-test",
		Secret:            "test-secret",
		AccessExpiration:  15 * time.Minute,
		RefreshExpiration: 7 * 24 * time.Hour,
	})
	s.health = nil
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	users := userstore.NewMemory()

	bans, err := ipbanservice.New(counterstore.NewMemory(), banstore.NewMemory(),
		ipbanservice.WithLogger(logger))
	s.Require().NoError(err)

	svc, err := authservice.New(
		s.codec,
		bucket.New(5, 10*time.Minute),
		bans,
		authservice.NewStoreVerifier(users),
		users,
		authservice.WithLogger(logger),
	)
	s.Require().NoError(err)

	return NewRouter(Deps{
		Auth:      authhandler.New(svc, logger, 7*24*time.Hour),
		Bans:      banhandler.New(bans, logger),
		Validator: CodecValidator{Codec: s.codec},
		Logger:    logger,
		Health:    s.health,
	})
}

func (s *RouterSuite) get(router http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) TestAdminRouteRequiresToken() {
	rec := s.get(s.newRouter(), "/admin/bans", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestAdminRouteRejectsNonAdmin() {
	access, err := s.codec.MintAccessToken("42", []string{"USER"})
	s.Require().NoError(err)

	rec := s.get(s.newRouter(), "/admin/bans", access)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestAdminRouteAllowsAdmin() {
	access, err := s.codec.MintAccessToken("42", []string{"USER", "ADMIN"})
	s.Require().NoError(err)

	rec := s.get(s.newRouter(), "/admin/bans", access)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestAdminRouteRejectsExpiredToken() {
	expiredCodec := token.NewCodec(config.JWTConfig{
		Issuer:            "confa-test",
		Secret:            "test-secret",
		AccessExpiration:  -time.Minute,
		RefreshExpiration: 7 * 24 * time.Hour,
	})
	access, err := expiredCodec.MintAccessToken("42", []string{"ADMIN"})
	s.Require().NoError(err)

	rec := s.get(s.newRouter(), "/admin/bans", access)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestHealthzOK() {
	s.health = map[string]HealthChecker{
		"redis": healthFunc(func(ctx context.Context) error { return nil }),
	}

	rec := s.get(s.newRouter(), "/healthz", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestHealthzReportsFailure() {
	s.health = map[string]HealthChecker{
		"redis": healthFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	}

	rec := s.get(s.newRouter(), "/healthz", "")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "redis")
}

func (s *RouterSuite) TestMetricsExposed() {
	rec := s.get(s.newRouter(), "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }
