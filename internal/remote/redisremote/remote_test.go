package redisremote

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote"
)

type RemoteSuite struct {
	suite.Suite
	mini   *miniredis.Miniredis
	remote *Remote
	ctx    context.Context
}

func TestRemoteSuite(t *testing.T) {
	suite.Run(t, new(RemoteSuite))
}

func (s *RemoteSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.remote = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *RemoteSuite) TearDownTest() {
	if s.remote != nil {
		_ = s.remote.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *RemoteSuite) key() model.GameKey {
	return model.GameKey{GameID: "color-match", Mode: "arcade", Difficulty: "normal"}
}

// Score tests

func (s *RemoteSuite) TestInsertScoreReturnsRef() {
	ref, err := s.remote.InsertScore(s.ctx, model.ScoreRecord{
		Key:       s.key(),
		Value:     500,
		CreatedAt: time.Now().UTC(),
		OwnerID:   "acc_1",
	})
	s.Require().NoError(err)
	s.NotEmpty(ref)
}

func (s *RemoteSuite) TestInsertScoreKeepsCallerRef() {
	ref, err := s.remote.InsertScore(s.ctx, model.ScoreRecord{
		Ref:     "fixed-ref",
		Key:     s.key(),
		Value:   500,
		OwnerID: "acc_1",
	})
	s.Require().NoError(err)
	s.Equal("fixed-ref", ref)
}

func (s *RemoteSuite) TestInsertScoreUnavailable() {
	s.mini.Close()

	_, err := s.remote.InsertScore(s.ctx, model.ScoreRecord{Key: s.key(), Value: 1, OwnerID: "acc_1"})
	s.ErrorIs(err, model.ErrRemoteUnavailable)
}

// Personal best tests

func (s *RemoteSuite) TestGetPersonalBestNotFound() {
	_, err := s.remote.GetPersonalBest(s.ctx, "acc_1", s.key())
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *RemoteSuite) TestUpsertAndGetPersonalBest() {
	pb := model.PersonalBest{
		BestValue:     500,
		BestRecordRef: "r1",
		Attempts:      3,
		UpdatedAt:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	err := s.remote.UpsertPersonalBest(s.ctx, "acc_1", s.key(), pb)
	s.Require().NoError(err)

	got, err := s.remote.GetPersonalBest(s.ctx, "acc_1", s.key())
	s.Require().NoError(err)
	s.Equal(pb, got)
}

func (s *RemoteSuite) TestPersonalBestIsolatedPerAccount() {
	_ = s.remote.UpsertPersonalBest(s.ctx, "acc_1", s.key(), model.PersonalBest{BestValue: 500, Attempts: 1})

	_, err := s.remote.GetPersonalBest(s.ctx, "acc_2", s.key())
	s.ErrorIs(err, model.ErrNotFound)
}

// Auth tests

func (s *RemoteSuite) TestAuthenticateSucceeds() {
	accountID, err := s.remote.RegisterAccount(s.ctx, "alice", "password123", "Alice")
	s.Require().NoError(err)

	result, err := s.remote.Authenticate(s.ctx, remote.Credential{Username: "alice", Password: "password123"})
	s.Require().NoError(err)
	s.Equal(accountID, result.AccountID)
	s.Equal("Alice", result.DisplayName)
	s.NotEmpty(result.SessionToken)
}

func (s *RemoteSuite) TestAuthenticateWrongPassword() {
	_, _ = s.remote.RegisterAccount(s.ctx, "alice", "password123", "Alice")

	_, err := s.remote.Authenticate(s.ctx, remote.Credential{Username: "alice", Password: "wrong"})
	s.ErrorIs(err, model.ErrAuthFailure)
}

func (s *RemoteSuite) TestAuthenticateUnknownUsername() {
	_, err := s.remote.Authenticate(s.ctx, remote.Credential{Username: "nobody", Password: "x"})
	s.ErrorIs(err, model.ErrAuthFailure)
}

func (s *RemoteSuite) TestAuthenticateOccupiesGlobalSession() {
	_, _ = s.remote.RegisterAccount(s.ctx, "alice", "password123", "Alice")

	result, err := s.remote.Authenticate(s.ctx, remote.Credential{Username: "alice", Password: "password123"})
	s.Require().NoError(err)

	token, err := s.remote.GetGlobalSession(s.ctx)
	s.Require().NoError(err)
	s.Equal(result.SessionToken, token)
}

// Global session tests

func (s *RemoteSuite) TestGlobalSessionRoundTrip() {
	token, err := s.remote.GetGlobalSession(s.ctx)
	s.Require().NoError(err)
	s.Empty(token)

	s.Require().NoError(s.remote.SetGlobalSession(s.ctx, "sess_abc"))

	token, err = s.remote.GetGlobalSession(s.ctx)
	s.Require().NoError(err)
	s.Equal("sess_abc", token)
}

func (s *RemoteSuite) TestGlobalSessionClear() {
	_ = s.remote.SetGlobalSession(s.ctx, "sess_abc")
	s.Require().NoError(s.remote.SetGlobalSession(s.ctx, ""))

	token, err := s.remote.GetGlobalSession(s.ctx)
	s.Require().NoError(err)
	s.Empty(token)
}
