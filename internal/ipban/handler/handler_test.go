package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/Aleksandr505/Confa/internal/ipban/models"
	"github.com/Aleksandr505/Confa/internal/ipban/service"
	banstore "github.com/Aleksandr505/Confa/internal/ipban/store/ban"
	counterstore "github.com/Aleksandr505/Confa/internal/ipban/store/counter"
)

type HandlerSuite struct {
	suite.Suite

	router http.Handler
	bans   *banstore.MemoryStore
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.bans = banstore.NewMemory()

	svc, err := service.New(counterstore.NewMemory(), s.bans, service.WithLogger(logger))
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(svc, logger).RegisterAdmin(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) TestListBansEmpty() {
	req := httptest.NewRequest(http.MethodGet, "/admin/bans", nil)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ListBansResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Empty(resp.Bans)
}

func (s *HandlerSuite) TestListBansReturnsActiveOnly() {
	ctx := context.Background()
	until := time.Now().Add(time.Hour)
	expired := time.Now().Add(-time.Hour)

	s.Require().NoError(s.bans.Save(ctx, &models.BanRecord{
		IP: "203.0.113.7", Reason: "Too many failed login attempts", BannedUntil: &until,
	}))
	s.Require().NoError(s.bans.Save(ctx, &models.BanRecord{
		IP: "203.0.113.8", Reason: "Too many failed login attempts", BannedUntil: &expired,
	}))
	s.Require().NoError(s.bans.Save(ctx, &models.BanRecord{
		IP: "203.0.113.9", Reason: "manual block", Permanent: true,
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/bans", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)

	var resp ListBansResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	s.Require().Len(resp.Bans, 2)

	ips := []string{resp.Bans[0].IP, resp.Bans[1].IP}
	s.ElementsMatch([]string{"203.0.113.7", "203.0.113.9"}, ips)
	for _, ban := range resp.Bans {
		if ban.IP == "203.0.113.9" {
			s.True(ban.Permanent)
			s.Nil(ban.BannedUntil)
		}
	}
}
