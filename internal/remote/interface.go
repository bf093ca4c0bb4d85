package remote

import (
	"context"

	"github.com/lightcade/lightcade/internal/model"
)

// Credential is what a player types at the login screen
type Credential struct {
	Username string
	Password string
}

// AuthResult is the outcome of a successful authentication exchange
type AuthResult struct {
	AccountID    model.AccountID
	DisplayName  string
	SessionToken string
}

// Remote is the backing-store contract the ledger and slot registry consume.
// Implementations collapse transport-specific failures to the closed error
// taxonomy in model: connectivity faults become model.ErrRemoteUnavailable,
// missing rows become model.ErrNotFound, bad credentials become
// model.ErrAuthFailure. Callers never branch on anything else.
type Remote interface {
	// InsertScore stores a score row and returns its remote reference
	InsertScore(ctx context.Context, record model.ScoreRecord) (string, error)

	// GetPersonalBest reads the current aggregate for one key
	GetPersonalBest(ctx context.Context, accountID model.AccountID, key model.GameKey) (model.PersonalBest, error)

	// UpsertPersonalBest writes the aggregate for one key
	UpsertPersonalBest(ctx context.Context, accountID model.AccountID, key model.GameKey, pb model.PersonalBest) error

	// Authenticate performs the credential exchange on the shared auth
	// channel. A successful exchange leaves the new session token as the
	// global session; callers that must not disturb the global session
	// capture it first and restore it after.
	Authenticate(ctx context.Context, cred Credential) (AuthResult, error)

	// GetGlobalSession returns the current shared session token, empty if none
	GetGlobalSession(ctx context.Context) (string, error)

	// SetGlobalSession replaces the shared session token
	SetGlobalSession(ctx context.Context, token string) error
}
