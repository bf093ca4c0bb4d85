package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote"
)

// Account is a provisioned account in the fake remote
type Account struct {
	AccountID   model.AccountID
	Username    string
	Password    string
	DisplayName string
}

// Remote is an in-memory implementation of the remote contract. It records
// every call and can simulate an outage, which makes it the test double for
// the ledger, relay and slot registry, and the default backend when the shell
// runs without a configured remote.
type Remote struct {
	mu sync.Mutex

	accounts      map[string]Account // by username
	scores        map[string]model.ScoreRecord
	scoreOrder    []string
	bests         map[string]model.PersonalBest
	globalSession string

	// Unavailable simulates a connectivity outage: every remote call fails
	// with model.ErrRemoteUnavailable while true
	Unavailable bool

	// Calls counts invocations per method name
	Calls map[string]int
}

// New creates an empty fake remote
func New() *Remote {
	return &Remote{
		accounts: make(map[string]Account),
		scores:   make(map[string]model.ScoreRecord),
		bests:    make(map[string]model.PersonalBest),
		Calls:    make(map[string]int),
	}
}

// Ensure Remote implements the contract
var _ remote.Remote = (*Remote)(nil)

// AddAccount provisions an account for authentication
func (r *Remote) AddAccount(acc Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc.AccountID == "" {
		acc.AccountID = model.AccountID("acc_" + uuid.NewString())
	}
	r.accounts[acc.Username] = acc
}

// ScoreCount returns the number of stored score records
func (r *Remote) ScoreCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scores)
}

// ScoresInOrder returns stored score records in insertion order
func (r *Remote) ScoresInOrder() []model.ScoreRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ScoreRecord, 0, len(r.scoreOrder))
	for _, ref := range r.scoreOrder {
		out = append(out, r.scores[ref])
	}
	return out
}

// TotalCalls returns the total number of remote invocations
func (r *Remote) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.Calls {
		total += n
	}
	return total
}

// SetUnavailable toggles the simulated outage
func (r *Remote) SetUnavailable(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Unavailable = down
}

func bestKey(accountID model.AccountID, key model.GameKey) string {
	return fmt.Sprintf("%s:%s", accountID, key.String())
}

func (r *Remote) record(method string) error {
	r.Calls[method]++
	if r.Unavailable {
		return fmt.Errorf("%w: fake outage", model.ErrRemoteUnavailable)
	}
	return nil
}

func (r *Remote) InsertScore(ctx context.Context, rec model.ScoreRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("InsertScore"); err != nil {
		return "", err
	}
	if rec.Ref == "" {
		rec.Ref = uuid.NewString()
	}
	r.scores[rec.Ref] = rec
	r.scoreOrder = append(r.scoreOrder, rec.Ref)
	return rec.Ref, nil
}

func (r *Remote) GetPersonalBest(ctx context.Context, accountID model.AccountID, key model.GameKey) (model.PersonalBest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("GetPersonalBest"); err != nil {
		return model.PersonalBest{}, err
	}
	pb, ok := r.bests[bestKey(accountID, key)]
	if !ok {
		return model.PersonalBest{}, model.ErrNotFound
	}
	return pb, nil
}

func (r *Remote) UpsertPersonalBest(ctx context.Context, accountID model.AccountID, key model.GameKey, pb model.PersonalBest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("UpsertPersonalBest"); err != nil {
		return err
	}
	r.bests[bestKey(accountID, key)] = pb
	return nil
}

func (r *Remote) Authenticate(ctx context.Context, cred remote.Credential) (remote.AuthResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("Authenticate"); err != nil {
		return remote.AuthResult{}, err
	}
	acc, ok := r.accounts[cred.Username]
	if !ok || acc.Password != cred.Password {
		return remote.AuthResult{}, model.ErrAuthFailure
	}
	token := "sess_" + uuid.NewString()
	// The exchange leaves its session on the shared channel, mirroring the
	// real backend
	r.globalSession = token
	return remote.AuthResult{
		AccountID:    acc.AccountID,
		DisplayName:  acc.DisplayName,
		SessionToken: token,
	}, nil
}

func (r *Remote) GetGlobalSession(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("GetGlobalSession"); err != nil {
		return "", err
	}
	return r.globalSession, nil
}

func (r *Remote) SetGlobalSession(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("SetGlobalSession"); err != nil {
		return err
	}
	r.globalSession = token
	return nil
}

// GlobalSession reads the stored token without counting as a remote call
func (r *Remote) GlobalSession() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.globalSession
}

// Best reads a stored aggregate without counting as a remote call
func (r *Remote) Best(accountID model.AccountID, key model.GameKey) (model.PersonalBest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pb, ok := r.bests[bestKey(accountID, key)]
	return pb, ok
}
