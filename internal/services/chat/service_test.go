package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pondside/pondside/internal/dependencies/mocks"
	"github.com/pondside/pondside/internal/storage/memory"
	"github.com/pondside/pondside/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(memory.New(), s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestAppendStampsAndStores() {
	msg, err := s.service.Append(s.ctx, "pond", "Ann", "hello out there")
	s.Require().NoError(err)

	s.Equal("hello out there", msg.Text)
	s.True(msg.CreatedAt.Equal(s.clock.Now()))

	recent, err := s.service.Recent(s.ctx, "pond")
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal("hello out there", recent[0].Text)
}

func (s *ServiceSuite) TestAppendTrimsWhitespace() {
	msg, err := s.service.Append(s.ctx, "pond", "Ann", "  spaced out \n")
	s.Require().NoError(err)
	s.Equal("spaced out", msg.Text)
}

func (s *ServiceSuite) TestAppendRejectsEmpty() {
	_, err := s.service.Append(s.ctx, "pond", "Ann", "   \t\n ")
	s.ErrorIs(err, ErrEmptyMessage)
}

func (s *ServiceSuite) TestAppendTruncatesLongMessages() {
	msg, err := s.service.Append(s.ctx, "pond", "Ann", strings.Repeat("a", MaxMessageLen+50))
	s.Require().NoError(err)
	s.Len([]rune(msg.Text), MaxMessageLen)
}

func (s *ServiceSuite) TestAppendCountsRunesNotBytes() {
	text := strings.Repeat("é", MaxMessageLen)
	msg, err := s.service.Append(s.ctx, "pond", "Ann", text)
	s.Require().NoError(err)
	s.Equal(text, msg.Text)
}

func (s *ServiceSuite) TestMessageIDsIncrease() {
	first, err := s.service.Append(s.ctx, "pond", "Ann", "one")
	s.Require().NoError(err)
	second, err := s.service.Append(s.ctx, "pond", "Ben", "two")
	s.Require().NoError(err)

	s.Greater(second.ID, first.ID)
}

func (s *ServiceSuite) TestRecentReturnsLastFiftyChronological() {
	for i := 0; i < HistoryLimit+10; i++ {
		_, err := s.service.Append(s.ctx, "pond", "Ann", fmt.Sprintf("msg %d", i))
		s.Require().NoError(err)
	}

	recent, err := s.service.Recent(s.ctx, "pond")
	s.Require().NoError(err)
	s.Require().Len(recent, HistoryLimit)
	s.Equal("msg 10", recent[0].Text)
	s.Equal(fmt.Sprintf("msg %d", HistoryLimit+9), recent[HistoryLimit-1].Text)
}
