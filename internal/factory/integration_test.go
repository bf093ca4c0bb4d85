package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote/fake"
	"github.com/lightcade/lightcade/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *IntegrationSuite) key() model.GameKey {
	return model.GameKey{GameID: "duck-hunt", Mode: "arcade", Difficulty: "hard"}
}

func (s *IntegrationSuite) TestDefaultsToMemoryAndFake() {
	app, err := New(Config{})
	s.Require().NoError(err)
	s.NotNil(app.LocalStore)
	s.IsType(&fake.Remote{}, app.Remote)
}

func (s *IntegrationSuite) TestInvalidStorageType() {
	_, err := New(Config{StorageType: "papyrus"})
	s.Error(err)
}

func (s *IntegrationSuite) TestSQLiteRequiresPath() {
	_, err := New(Config{StorageType: StorageTypeSQLite})
	s.Error(err)
}

func (s *IntegrationSuite) TestGuestStateSurvivesRestart() {
	path := filepath.Join(s.T().TempDir(), "arcade.db")

	app, err := New(Config{Logger: testutil.NopLogger(), StorageType: StorageTypeSQLite, SQLitePath: path})
	s.Require().NoError(err)

	guest, err := app.SlotRegistry.SetGuest(s.ctx, 1, "Couch Guest")
	s.Require().NoError(err)

	_, err = app.ScoreLedger.Submit(s.ctx, guest, s.key(), 500, nil)
	s.Require().NoError(err)

	// Simulate a process restart on the same database
	restarted, err := New(Config{Logger: testutil.NopLogger(), StorageType: StorageTypeSQLite, SQLitePath: path})
	s.Require().NoError(err)

	slot, err := restarted.SlotRegistry.Slot(1)
	s.Require().NoError(err)
	s.Require().NotNil(slot.Identity)
	s.Equal(guest.LocalID, slot.Identity.LocalID)

	pb, err := restarted.ScoreLedger.Best(s.ctx, guest, s.key())
	s.Require().NoError(err)
	s.Equal(500, pb.BestValue)
}

func (s *IntegrationSuite) TestQueueSurvivesRestartAndReplays() {
	path := filepath.Join(s.T().TempDir(), "arcade.db")

	app, err := New(Config{Logger: testutil.NopLogger(), StorageType: StorageTypeSQLite, SQLitePath: path})
	s.Require().NoError(err)

	rem := app.Remote.(*fake.Remote)
	rem.SetUnavailable(true)

	registered := model.NewRegistered("acc_alice", "Alice")
	result, err := app.ScoreLedger.Submit(s.ctx, registered, s.key(), 700, nil)
	s.Require().NoError(err)
	s.True(result.Queued)

	// Restart: the queue is durable, the fake remote is not
	restarted, err := New(Config{Logger: testutil.NopLogger(), StorageType: StorageTypeSQLite, SQLitePath: path})
	s.Require().NoError(err)

	length, err := restarted.ScoreLedger.QueueLength(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, length)

	restarted.ScoreRelay.Notify()
	restarted.ScoreRelay.Wait()

	length, _ = restarted.ScoreLedger.QueueLength(s.ctx)
	s.Equal(0, length)
	s.Equal(1, restarted.Remote.(*fake.Remote).ScoreCount())
}
