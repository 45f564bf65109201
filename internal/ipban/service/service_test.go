package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Aleksandr505/Confa/internal/ipban/models"
	banstore "github.com/Aleksandr505/Confa/internal/ipban/store/ban"
	"github.com/Aleksandr505/Confa/internal/ipban/store/counter"
	dErrors "github.com/Aleksandr505/Confa/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	counters *counter.MemoryStore
	bans     *banstore.MemoryStore
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.counters = counter.NewMemory(counter.WithClock(clock))
	s.bans = banstore.NewMemory(banstore.WithClock(clock))

	var err error
	s.service, err = New(s.counters, s.bans,
		WithClock(clock),
		WithLogger(slog.Default()),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) failTimes(ip string, n int) int64 {
	var total int64
	for i := 0; i < n; i++ {
		total = s.service.RegisterFailure(s.ctx, ip)
	}
	return total
}

func (s *ServiceSuite) TestNew() {
	_, err := New(nil, s.bans)
	s.Error(err)
	_, err = New(s.counters, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestRegisterFailure() {
	s.Run("counts failures within the window", func() {
		s.Equal(int64(1), s.service.RegisterFailure(s.ctx, "9.9.9.9"))
		s.Equal(int64(2), s.service.RegisterFailure(s.ctx, "9.9.9.9"))
	})

	s.Run("window expiry resets the count", func() {
		s.now = s.now.Add(16 * time.Minute)
		s.Equal(int64(1), s.service.RegisterFailure(s.ctx, "9.9.9.9"))
	})

	s.Run("blank ip is ignored", func() {
		s.Equal(int64(0), s.service.RegisterFailure(s.ctx, ""))
	})
}

func (s *ServiceSuite) TestEscalation() {
	ip := "5.6.7.8"

	s.Run("six failures produce a 15 minute ban", func() {
		s.failTimes(ip, 6)

		rec, err := s.bans.FindLatestByIP(s.ctx, ip)
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.False(rec.Permanent)
		s.Require().NotNil(rec.BannedUntil)
		s.Equal(s.now.Add(15*time.Minute), *rec.BannedUntil)
	})

	s.Run("failure counter cleared when the ban is issued", func() {
		s.Equal(int64(1), s.service.RegisterFailure(s.ctx, ip))
	})

	s.Run("second cycle within 24h escalates to one hour", func() {
		// First ban has expired and the failure window reset; the ban
		// counter (24h TTL) still remembers the first offence.
		s.now = s.now.Add(time.Hour)
		s.failTimes(ip, 6)

		rec, err := s.bans.FindLatestByIP(s.ctx, ip)
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Require().NotNil(rec.BannedUntil)
		s.Equal(s.now.Add(time.Hour), *rec.BannedUntil)
	})

	s.Run("ban history is updated in place, not duplicated", func() {
		active, err := s.bans.FindAllActive(s.ctx, s.now)
		s.Require().NoError(err)
		s.Len(active, 1)
	})
}

func (s *ServiceSuite) TestPermanentFlagPreserved() {
	ip := "6.6.6.6"
	s.Require().NoError(s.bans.Save(s.ctx, &models.BanRecord{
		IP:        ip,
		Reason:    "manual block",
		Permanent: true,
	}))

	s.failTimes(ip, 6)

	rec, err := s.bans.FindLatestByIP(s.ctx, ip)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.True(rec.Permanent, "escalation upsert must not downgrade a permanent ban")
	s.NotNil(rec.BannedUntil)
}

func (s *ServiceSuite) TestTierFor() {
	tests := []struct {
		banCount int64
		want     time.Duration
	}{
		{banCount: 0, want: 15 * time.Minute},
		{banCount: 1, want: 15 * time.Minute},
		{banCount: 2, want: time.Hour},
		{banCount: 7, want: time.Hour},
	}
	for _, tt := range tests {
		s.Equal(tt.want, s.service.TierFor(tt.banCount), "banCount=%d", tt.banCount)
	}
}

func (s *ServiceSuite) TestEnsureAllowed() {
	s.Run("unbanned ip passes", func() {
		s.NoError(s.service.EnsureAllowed(s.ctx, "1.1.1.1"))
	})

	s.Run("blank ip passes", func() {
		s.NoError(s.service.EnsureAllowed(s.ctx, ""))
	})

	s.Run("temporary ban rejects with forbidden", func() {
		until := s.now.Add(15 * time.Minute)
		s.Require().NoError(s.bans.Save(s.ctx, &models.BanRecord{IP: "2.2.2.2", BannedUntil: &until}))

		err := s.service.EnsureAllowed(s.ctx, "2.2.2.2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "temporarily")
	})

	s.Run("permanent ban rejects with distinct wording", func() {
		s.Require().NoError(s.bans.Save(s.ctx, &models.BanRecord{IP: "3.3.3.3", Permanent: true}))

		err := s.service.EnsureAllowed(s.ctx, "3.3.3.3")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "permanently")
	})

	s.Run("expired ban passes", func() {
		until := s.now.Add(-time.Minute)
		s.Require().NoError(s.bans.Save(s.ctx, &models.BanRecord{IP: "4.4.4.4", BannedUntil: &until}))

		s.NoError(s.service.EnsureAllowed(s.ctx, "4.4.4.4"))
	})
}

type failingCounterStore struct{}

func (failingCounterStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingCounterStore) Delete(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func (s *ServiceSuite) TestFailOpenBookkeeping() {
	svc, err := New(failingCounterStore{}, s.bans,
		WithClock(func() time.Time { return s.now }),
		WithLogger(slog.Default()),
	)
	s.Require().NoError(err)

	s.Equal(int64(0), svc.RegisterFailure(s.ctx, "9.9.9.9"))

	rec, err := s.bans.FindLatestByIP(s.ctx, "9.9.9.9")
	s.Require().NoError(err)
	s.Nil(rec, "no ban may be created when the counter store is down")
}
