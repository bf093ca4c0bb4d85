package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lightcade/lightcade/internal/dependencies/mocks"
	"github.com/lightcade/lightcade/internal/localstore"
	"github.com/lightcade/lightcade/internal/localstore/memory"
	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote/fake"
	"github.com/lightcade/lightcade/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	remote  *fake.Remote
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context

	guest      model.Identity
	registered model.Identity
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.remote = fake.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.store, s.remote, s.clock, testutil.NopLogger())
	s.ctx = context.Background()

	s.guest = model.NewGuest("g_1", "Couch Guest")
	s.registered = model.NewRegistered("acc_alice", "Alice")
}

func (s *ServiceSuite) key() model.GameKey {
	return model.GameKey{GameID: "color-match", Mode: "arcade", Difficulty: "normal"}
}

// Guest path tests

func (s *ServiceSuite) TestGuestSubmitNeverTouchesRemote() {
	result, err := s.service.Submit(s.ctx, s.guest, s.key(), 500, nil)
	s.Require().NoError(err)

	s.True(result.Accepted)
	s.False(result.Queued)
	s.Equal(0, s.remote.TotalCalls())
}

func (s *ServiceSuite) TestGuestBestScenario() {
	// 500 -> best=500, attempts=1
	result, err := s.service.Submit(s.ctx, s.guest, s.key(), 500, nil)
	s.Require().NoError(err)
	s.True(result.NewPersonalBest)

	pb, err := s.service.Best(s.ctx, s.guest, s.key())
	s.Require().NoError(err)
	s.Equal(500, pb.BestValue)
	s.Equal(1, pb.Attempts)

	// 300 -> best=500, attempts=2
	result, _ = s.service.Submit(s.ctx, s.guest, s.key(), 300, nil)
	s.False(result.NewPersonalBest)

	pb, _ = s.service.Best(s.ctx, s.guest, s.key())
	s.Equal(500, pb.BestValue)
	s.Equal(2, pb.Attempts)

	// 700 -> best=700, attempts=3
	result, _ = s.service.Submit(s.ctx, s.guest, s.key(), 700, nil)
	s.True(result.NewPersonalBest)

	pb, _ = s.service.Best(s.ctx, s.guest, s.key())
	s.Equal(700, pb.BestValue)
	s.Equal(3, pb.Attempts)
}

func (s *ServiceSuite) TestGuestBestSurvivesNewService() {
	_, _ = s.service.Submit(s.ctx, s.guest, s.key(), 500, nil)

	restarted := New(s.store, s.remote, s.clock, testutil.NopLogger())
	pb, err := restarted.Best(s.ctx, s.guest, s.key())
	s.Require().NoError(err)
	s.Equal(500, pb.BestValue)
}

func (s *ServiceSuite) TestGuestSubmitWorksWhileRemoteDown() {
	s.remote.SetUnavailable(true)

	result, err := s.service.Submit(s.ctx, s.guest, s.key(), 500, nil)
	s.Require().NoError(err)
	s.True(result.Accepted)
	s.False(result.Queued)
}

// Registered path tests

func (s *ServiceSuite) TestRegisteredSubmitDeliversRemotely() {
	result, err := s.service.Submit(s.ctx, s.registered, s.key(), 500, map[string]string{"shots": "42"})
	s.Require().NoError(err)

	s.True(result.Accepted)
	s.True(result.NewPersonalBest)
	s.Equal(1, s.remote.ScoreCount())

	pb, ok := s.remote.Best("acc_alice", s.key())
	s.Require().True(ok)
	s.Equal(500, pb.BestValue)
	s.Equal(1, pb.Attempts)
}

func (s *ServiceSuite) TestRegisteredSubmitSameRuleAsGuest() {
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 500, nil)
	result, _ := s.service.Submit(s.ctx, s.registered, s.key(), 500, nil)

	// Ties do not replace, matching the guest path
	s.False(result.NewPersonalBest)

	pb, _ := s.remote.Best("acc_alice", s.key())
	s.Equal(500, pb.BestValue)
	s.Equal(2, pb.Attempts)
}

func (s *ServiceSuite) TestRegisteredSubmitQueuesWhenRemoteDown() {
	s.remote.SetUnavailable(true)

	result, err := s.service.Submit(s.ctx, s.registered, s.key(), 500, nil)
	s.Require().NoError(err)

	s.False(result.Accepted)
	s.True(result.Queued)

	length, err := s.service.QueueLength(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, length)
}

func (s *ServiceSuite) TestQueuePreservesOrder() {
	s.remote.SetUnavailable(true)
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 100, nil)
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 200, nil)
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 300, nil)

	entries, err := s.service.SnapshotAndClearQueue(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(100, entries[0].Value)
	s.Equal(200, entries[1].Value)
	s.Equal(300, entries[2].Value)
}

func (s *ServiceSuite) TestSnapshotAndClearEmptiesQueue() {
	s.remote.SetUnavailable(true)
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 100, nil)

	_, err := s.service.SnapshotAndClearQueue(s.ctx)
	s.Require().NoError(err)

	length, _ := s.service.QueueLength(s.ctx)
	s.Equal(0, length)

	again, err := s.service.SnapshotAndClearQueue(s.ctx)
	s.Require().NoError(err)
	s.Nil(again)
}

func (s *ServiceSuite) TestRequeueAppendsAtTail() {
	s.remote.SetUnavailable(true)
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 100, nil)
	entries, _ := s.service.SnapshotAndClearQueue(s.ctx)

	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 200, nil)
	s.Require().NoError(s.service.Requeue(s.ctx, entries))

	all, _ := s.service.SnapshotAndClearQueue(s.ctx)
	s.Require().Len(all, 2)
	s.Equal(200, all[0].Value)
	s.Equal(100, all[1].Value)
}

func (s *ServiceSuite) TestResubmitEntryKeepsRef() {
	s.remote.SetUnavailable(true)
	_, _ = s.service.Submit(s.ctx, s.registered, s.key(), 500, nil)
	entries, _ := s.service.SnapshotAndClearQueue(s.ctx)
	s.Require().Len(entries, 1)

	s.remote.SetUnavailable(false)
	s.Require().NoError(s.service.ResubmitEntry(s.ctx, entries[0]))

	scores := s.remote.ScoresInOrder()
	s.Require().Len(scores, 1)
	s.Equal(entries[0].Ref, scores[0].Ref)
}

func (s *ServiceSuite) TestQueueEntriesOnlyForRegistered() {
	s.remote.SetUnavailable(true)
	_, _ = s.service.Submit(s.ctx, s.guest, s.key(), 500, nil)

	length, _ := s.service.QueueLength(s.ctx)
	s.Equal(0, length)
}

// Local failure tests

type failingStore struct {
	localstore.Store
	err error
}

func (f *failingStore) Put(ctx context.Context, namespace, key string, data []byte) error {
	return f.err
}

func (s *ServiceSuite) TestGuestSubmitLocalFailure() {
	broken := &failingStore{Store: s.store, err: errors.New("disk full")}
	service := New(broken, s.remote, s.clock, testutil.NopLogger())

	_, err := service.Submit(s.ctx, s.guest, s.key(), 500, nil)
	s.ErrorIs(err, model.ErrLocalStorage)
}
