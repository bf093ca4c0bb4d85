package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lightcade/lightcade/internal/dependencies/clock"
	"github.com/lightcade/lightcade/internal/localstore"
	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote"
)

const queueKey = "entries"

// Result is the outcome of one score submission
type Result struct {
	// Accepted means the score reached its durable destination: the remote
	// store for registered identities, the local store for guests
	Accepted bool
	// Queued means the remote store was unreachable and the submission is
	// held for the offline relay
	Queued bool
	// NewPersonalBest means this submission set a new best for its key
	NewPersonalBest bool
}

// deliveryPath is the single place deciding where a submission goes; both the
// guest and registered flows consume it so the best-score rules cannot fork
type deliveryPath int

const (
	pathLocal deliveryPath = iota
	pathRemote
)

func pathFor(identity model.Identity) deliveryPath {
	if identity.IsGuest() {
		return pathLocal
	}
	return pathRemote
}

// Service is the score ledger. It durably records submissions and maintains
// the personal-best aggregate across online, offline and guest states.
type Service struct {
	store  localstore.Store
	remote remote.Remote
	clock  clock.Clock
	logger *slog.Logger

	// queueMu serializes read-modify-write cycles on the persisted queue blob
	queueMu sync.Mutex
}

// New creates a score ledger
func New(store localstore.Store, rem remote.Remote, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		remote: rem,
		clock:  clk,
		logger: logger,
	}
}

// Submit records one score for the given identity. Remote faults never
// surface as hard failures: the submission is queued for the offline relay
// and the caller sees Queued=true. Local storage faults are the one loss
// case; they are logged and reported as ErrLocalStorage.
func (s *Service) Submit(ctx context.Context, identity model.Identity, key model.GameKey, value int, metadata map[string]string) (Result, error) {
	record := model.ScoreRecord{
		Ref:       uuid.NewString(),
		Key:       key,
		Value:     value,
		Metadata:  metadata,
		CreatedAt: s.clock.Now().UTC(),
		OwnerID:   identity.OwnerID(),
	}

	switch pathFor(identity) {
	case pathLocal:
		return s.submitLocal(ctx, record)
	default:
		return s.submitRemote(ctx, record)
	}
}

// submitLocal handles guest submissions entirely in the local store. This
// path never touches the network.
func (s *Service) submitLocal(ctx context.Context, record model.ScoreRecord) (Result, error) {
	var pb model.PersonalBest
	data, err := s.store.Get(ctx, localstore.NamespaceBests, record.Key.String())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &pb); err != nil {
			s.logger.Warn("discarding corrupt personal best", slog.String("key", record.Key.String()), slog.String("error", err.Error()))
			pb = model.PersonalBest{}
		}
	case !errors.Is(err, model.ErrNotFound):
		return Result{}, s.localFailure("read personal best", err)
	}

	isNew := pb.Apply(record)

	recordData, err := json.Marshal(record)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Put(ctx, localstore.NamespaceRecords, record.Ref, recordData); err != nil {
		return Result{}, s.localFailure("write score record", err)
	}

	pbData, err := json.Marshal(pb)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Put(ctx, localstore.NamespaceBests, record.Key.String(), pbData); err != nil {
		return Result{}, s.localFailure("write personal best", err)
	}

	return Result{Accepted: true, NewPersonalBest: isNew}, nil
}

// submitRemote handles registered submissions. Any remote fault downgrades to
// an enqueue; the at-least-once queue stands in for durability.
func (s *Service) submitRemote(ctx context.Context, record model.ScoreRecord) (Result, error) {
	isNew, err := s.deliverRemote(ctx, record)
	if err != nil {
		s.logger.Info("remote unavailable, queueing score",
			slog.String("key", record.Key.String()),
			slog.Int("value", record.Value),
			slog.String("error", err.Error()),
		)
		if qerr := s.enqueue(ctx, model.QueueEntry{
			Ref:      record.Ref,
			OwnerID:  record.OwnerID,
			Key:      record.Key,
			Value:    record.Value,
			Metadata: record.Metadata,
			QueuedAt: s.clock.Now().UTC(),
		}); qerr != nil {
			return Result{}, qerr
		}
		return Result{Accepted: false, Queued: true}, nil
	}
	return Result{Accepted: true, NewPersonalBest: isNew}, nil
}

// deliverRemote inserts the record and folds it into the remote aggregate.
// The read-compare-write is not linearizable against another device driving
// the same account; a single local device is the design point.
func (s *Service) deliverRemote(ctx context.Context, record model.ScoreRecord) (bool, error) {
	ref, err := s.remote.InsertScore(ctx, record)
	if err != nil {
		return false, err
	}
	record.Ref = ref

	var pb model.PersonalBest
	current, err := s.remote.GetPersonalBest(ctx, record.OwnerID, record.Key)
	switch {
	case err == nil:
		pb = current
	case !errors.Is(err, model.ErrNotFound):
		return false, err
	}

	isNew := pb.Apply(record)

	if err := s.remote.UpsertPersonalBest(ctx, record.OwnerID, record.Key, pb); err != nil {
		return false, err
	}
	return isNew, nil
}

// Best returns the personal-best aggregate for the identity and key, from
// whichever store the identity's delivery path uses.
func (s *Service) Best(ctx context.Context, identity model.Identity, key model.GameKey) (model.PersonalBest, error) {
	if pathFor(identity) == pathRemote {
		return s.remote.GetPersonalBest(ctx, identity.OwnerID(), key)
	}

	data, err := s.store.Get(ctx, localstore.NamespaceBests, key.String())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.PersonalBest{}, model.ErrNotFound
		}
		return model.PersonalBest{}, s.localFailure("read personal best", err)
	}
	var pb model.PersonalBest
	if err := json.Unmarshal(data, &pb); err != nil {
		return model.PersonalBest{}, err
	}
	return pb, nil
}

// Queue operations, shared with the offline relay

// enqueue appends one entry to the persisted queue
func (s *Service) enqueue(ctx context.Context, entry model.QueueEntry) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	entries, err := s.loadQueue(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	return s.saveQueue(ctx, entries)
}

// Requeue appends entries at the tail, preserving their relative order. Used
// by the relay for entries that failed again.
func (s *Service) Requeue(ctx context.Context, entries []model.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	current, err := s.loadQueue(ctx)
	if err != nil {
		return err
	}
	return s.saveQueue(ctx, append(current, entries...))
}

// SnapshotAndClearQueue atomically takes the whole queue and empties it, so a
// second replay trigger cannot process the same entries twice.
func (s *Service) SnapshotAndClearQueue(ctx context.Context) ([]model.QueueEntry, error) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	entries, err := s.loadQueue(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	if err := s.store.Delete(ctx, localstore.NamespaceQueue, queueKey); err != nil {
		return nil, s.localFailure("clear queue", err)
	}
	return entries, nil
}

// QueueLength returns the number of queued submissions
func (s *Service) QueueLength(ctx context.Context) (int, error) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	entries, err := s.loadQueue(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ResubmitEntry replays one queued submission against the remote store. The
// entry keeps its original ref, so a resubmission after a crash between
// remote ack and queue removal writes the same ref again rather than a fresh
// one. The remote side has no dedup key; that double-submit window is a known
// property of the at-least-once design.
func (s *Service) ResubmitEntry(ctx context.Context, entry model.QueueEntry) error {
	record := model.ScoreRecord{
		Ref:       entry.Ref,
		Key:       entry.Key,
		Value:     entry.Value,
		Metadata:  entry.Metadata,
		CreatedAt: entry.QueuedAt,
		OwnerID:   entry.OwnerID,
	}
	_, err := s.deliverRemote(ctx, record)
	return err
}

func (s *Service) loadQueue(ctx context.Context) ([]model.QueueEntry, error) {
	data, err := s.store.Get(ctx, localstore.NamespaceQueue, queueKey)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, s.localFailure("read queue", err)
	}

	var entries []model.QueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Error("discarding corrupt score queue", slog.String("error", err.Error()))
		return nil, nil
	}
	return entries, nil
}

func (s *Service) saveQueue(ctx context.Context, entries []model.QueueEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, localstore.NamespaceQueue, queueKey, data); err != nil {
		return s.localFailure("write queue", err)
	}
	return nil
}

// localFailure logs and wraps a local-store fault. These are not retried; the
// affected submission is lost.
func (s *Service) localFailure(op string, err error) error {
	s.logger.Error("local storage failure", slog.String("op", op), slog.String("error", err.Error()))
	return fmt.Errorf("%w: %s: %v", model.ErrLocalStorage, op, err)
}
