package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewMemory(WithClock(func() time.Time { return s.now }))
}

func (s *MemoryStoreSuite) TestIncrement() {
	const window = 15 * time.Minute

	s.Run("counts up within the window", func() {
		for want := int64(1); want <= 6; want++ {
			got, err := s.store.Increment(s.ctx, "fail:ip:9.9.9.9", window)
			s.Require().NoError(err)
			s.Equal(want, got)
		}
	})

	s.Run("expired window starts over at one", func() {
		s.now = s.now.Add(window + time.Second)
		got, err := s.store.Increment(s.ctx, "fail:ip:9.9.9.9", window)
		s.Require().NoError(err)
		s.Equal(int64(1), got)
	})

	s.Run("increment does not extend an existing window", func() {
		start := s.now
		_, err := s.store.Increment(s.ctx, "fail:ip:7.7.7.7", window)
		s.Require().NoError(err)

		s.now = start.Add(window - time.Second)
		_, err = s.store.Increment(s.ctx, "fail:ip:7.7.7.7", window)
		s.Require().NoError(err)

		// Two seconds later the original window has elapsed even though the
		// second increment happened just before the boundary.
		s.now = start.Add(window + time.Second)
		got, err := s.store.Increment(s.ctx, "fail:ip:7.7.7.7", window)
		s.Require().NoError(err)
		s.Equal(int64(1), got)
	})
}

func (s *MemoryStoreSuite) TestDelete() {
	_, err := s.store.Increment(s.ctx, "fail:ip:1.1.1.1", time.Minute)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Delete(s.ctx, "fail:ip:1.1.1.1"))

	got, err := s.store.Get(s.ctx, "fail:ip:1.1.1.1")
	s.Require().NoError(err)
	s.Equal(int64(0), got)
}

func (s *MemoryStoreSuite) TestGet() {
	got, err := s.store.Get(s.ctx, "fail:ip:absent")
	s.Require().NoError(err)
	s.Equal(int64(0), got)

	_, err = s.store.Increment(s.ctx, "fail:ip:2.2.2.2", time.Minute)
	s.Require().NoError(err)
	got, err = s.store.Get(s.ctx, "fail:ip:2.2.2.2")
	s.Require().NoError(err)
	s.Equal(int64(1), got)
}
