package redisremote

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/lightcade/lightcade/internal/model"
	"github.com/lightcade/lightcade/internal/remote"
)

// account is the stored shape of a registered account
type account struct {
	AccountID    model.AccountID `json:"account_id"`
	Username     string          `json:"username"`
	DisplayName  string          `json:"display_name"`
	PasswordHash string          `json:"password_hash"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Remote is a Redis-backed implementation of the remote store contract
type Remote struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis remote and verifies the connection
func New(cfg Config) (*Remote, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteUnavailable, err)
	}

	return &Remote{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis remote with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Remote {
	return &Remote{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (r *Remote) Close() error {
	return r.client.Close()
}

// Ensure Remote implements the contract
var _ remote.Remote = (*Remote)(nil)

// opContext applies the per-call timeout when the caller has no deadline
func (r *Remote) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || r.cfg.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.OpTimeout)
}

// unavailable collapses transport faults to the closed taxonomy. redis.Nil is
// never a transport fault and is handled before this at each call site.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", model.ErrRemoteUnavailable, err)
}

func (r *Remote) InsertScore(ctx context.Context, record model.ScoreRecord) (string, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if record.Ref == "" {
		record.Ref = uuid.NewString()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, scoreKey(record.Ref), data, 0)
	pipe.RPush(ctx, scoresForAccountIndexKey(record.OwnerID), record.Ref)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", unavailable(err)
	}
	return record.Ref, nil
}

func (r *Remote) GetPersonalBest(ctx context.Context, accountID model.AccountID, key model.GameKey) (model.PersonalBest, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	data, err := r.client.Get(ctx, personalBestKey(accountID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.PersonalBest{}, model.ErrNotFound
		}
		return model.PersonalBest{}, unavailable(err)
	}

	var pb model.PersonalBest
	if err := json.Unmarshal(data, &pb); err != nil {
		return model.PersonalBest{}, err
	}
	return pb, nil
}

func (r *Remote) UpsertPersonalBest(ctx context.Context, accountID model.AccountID, key model.GameKey, pb model.PersonalBest) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	data, err := json.Marshal(pb)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, personalBestKey(accountID, key), data, 0).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (r *Remote) Authenticate(ctx context.Context, cred remote.Credential) (remote.AuthResult, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	accountIDStr, err := r.client.Get(ctx, usernameIndexKey(cred.Username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return remote.AuthResult{}, model.ErrAuthFailure
		}
		return remote.AuthResult{}, unavailable(err)
	}

	data, err := r.client.Get(ctx, accountKey(model.AccountID(accountIDStr))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return remote.AuthResult{}, model.ErrAuthFailure
		}
		return remote.AuthResult{}, unavailable(err)
	}

	var acc account
	if err := json.Unmarshal(data, &acc); err != nil {
		return remote.AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(cred.Password)); err != nil {
		return remote.AuthResult{}, model.ErrAuthFailure
	}

	token := generateToken()

	// The exchange leaves its session on the shared channel, like the shell's
	// single sign-in surface does. Secondary-slot logins capture and restore
	// around this.
	if err := r.client.Set(ctx, globalSessionKey(), token, 0).Err(); err != nil {
		return remote.AuthResult{}, unavailable(err)
	}

	return remote.AuthResult{
		AccountID:    acc.AccountID,
		DisplayName:  acc.DisplayName,
		SessionToken: token,
	}, nil
}

func (r *Remote) GetGlobalSession(ctx context.Context) (string, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	token, err := r.client.Get(ctx, globalSessionKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", unavailable(err)
	}
	return token, nil
}

func (r *Remote) SetGlobalSession(ctx context.Context, token string) error {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	if token == "" {
		if err := r.client.Del(ctx, globalSessionKey()).Err(); err != nil {
			return unavailable(err)
		}
		return nil
	}
	if err := r.client.Set(ctx, globalSessionKey(), token, 0).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// RegisterAccount provisions a registered account. Used by operators seeding
// accounts and by tests; the shell itself registers accounts elsewhere.
func (r *Remote) RegisterAccount(ctx context.Context, username, password, displayName string) (model.AccountID, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	acc := account{
		AccountID:    model.AccountID("acc_" + uuid.NewString()),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(acc)
	if err != nil {
		return "", err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accountKey(acc.AccountID), data, 0)
	pipe.Set(ctx, usernameIndexKey(acc.Username), string(acc.AccountID), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", unavailable(err)
	}
	return acc.AccountID, nil
}

// generateToken generates a random session token
func generateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "sess_" + base64.RawURLEncoding.EncodeToString(b)
}
