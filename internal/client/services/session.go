// Package services contains the client-side application services. This file
// implements the session store: account registration, login, logout and
// session restore over a key/value repository.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/webkech/internal/client/models"
	"github.com/dmitrijs2005/webkech/internal/client/repositories/kv"
	"github.com/dmitrijs2005/webkech/internal/clock"
	"github.com/dmitrijs2005/webkech/internal/cryptox"
	"github.com/dmitrijs2005/webkech/internal/logging"
	"github.com/google/uuid"
)

// newID is a test seam for account id generation.
var newID = uuid.NewString

// SessionStore owns the accounts, credentials and session collections.
//
// Contract:
//   - Register: create an account and credential, then sign the account in.
//   - Login: verify a secret and sign the matching account in.
//   - Logout: clear the session slot; idempotent.
//   - Restore: load the session slot once at startup.
//   - State/Current: report the resolved session for access gating.
//   - SeedDemo: insert the demo account when no accounts exist.
type SessionStore interface {
	Register(ctx context.Context, email string, secret []byte) (models.Account, error)
	Login(ctx context.Context, email string, secret []byte) (models.Account, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (*models.Account, error)
	State() models.SessionState
	Current() (models.Account, bool)
	SeedDemo(ctx context.Context) error
}

// StoreConfig selects the namespace and hashing cost of a session store.
type StoreConfig struct {
	Namespace string
	KDF       cryptox.Params
}

type sessionStore struct {
	repo   kv.Repository
	logger logging.Logger
	clock  clock.Clock
	kdf    cryptox.Params
	keys   keys

	mu      sync.Mutex
	state   models.SessionState
	account models.Account
}

// NewSessionStore returns a store in the SessionUnknown state. Call Restore
// before gating on State.
func NewSessionStore(repo kv.Repository, logger logging.Logger, clk clock.Clock, cfg StoreConfig) SessionStore {
	if cfg.KDF == (cryptox.Params{}) {
		cfg.KDF = cryptox.DefaultParams()
	}
	return &sessionStore{
		repo:   repo,
		logger: logger.With("namespace", cfg.Namespace),
		clock:  clk,
		kdf:    cfg.KDF,
		keys:   newKeys(cfg.Namespace),
	}
}

// Register fails with ErrDuplicateAccount if email is taken. Otherwise it
// writes the new account, its credential and the session in one batch.
func (s *sessionStore) Register(ctx context.Context, email string, secret []byte) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return models.Account{}, err
	}
	if _, ok := models.FindAccountByEmail(accounts, email); ok {
		return models.Account{}, ErrDuplicateAccount
	}

	credentials, err := s.loadCredentials(ctx)
	if err != nil {
		return models.Account{}, err
	}

	hash, err := cryptox.HashSecret(secret, s.kdf)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash secret: %w", err)
	}

	account := models.Account{ID: newID(), Email: email, CreatedAt: s.clock.Now().UTC()}
	accounts = append(accounts, account)
	// an orphaned credential for this email would shadow the new one
	credentials = append(withoutCredential(credentials, email),
		models.Credential{Email: email, SecretHash: hash, AccountID: account.ID})

	batch, err := encodeBatch(
		s.keys.accounts, accounts,
		s.keys.credentials, credentials,
		s.keys.session, account,
	)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.repo.SetBatch(ctx, batch...); err != nil {
		return models.Account{}, fmt.Errorf("save registration: %w", err)
	}

	s.setAuthenticated(account)
	s.logger.Info(ctx, "account registered", "account_id", account.ID, "email", email)
	return account, nil
}

// Login never touches the session slot on failure.
func (s *sessionStore) Login(ctx context.Context, email string, secret []byte) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credentials, err := s.loadCredentials(ctx)
	if err != nil {
		return models.Account{}, err
	}
	credential, ok := models.FindCredential(credentials, email)
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}

	match, err := cryptox.VerifySecret(credential.SecretHash, secret)
	if err != nil {
		s.logger.Warn(ctx, "stored credential is not verifiable", "email", email, "error", err)
		return models.Account{}, ErrInvalidCredential
	}
	if !match {
		return models.Account{}, ErrInvalidCredential
	}

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return models.Account{}, err
	}
	account, ok := models.FindAccountByID(accounts, credential.AccountID)
	if !ok {
		s.logger.Error(ctx, "credential without account", "email", email, "account_id", credential.AccountID)
		return models.Account{}, ErrAccountRecordMissing
	}

	data, err := json.Marshal(account)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.repo.Set(ctx, s.keys.session, data); err != nil {
		return models.Account{}, fmt.Errorf("save session: %w", err)
	}

	s.setAuthenticated(account)
	s.logger.Info(ctx, "logged in", "account_id", account.ID)
	return account, nil
}

// Logout clears the session slot. The in-memory state is cleared even when
// the storage delete fails.
func (s *sessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setUnauthenticated()
	if err := s.repo.Delete(ctx, s.keys.session); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Debug(ctx, "logged out")
	return nil
}

// Restore resolves the SessionUnknown state from the session slot. A missing
// or corrupt slot yields (nil, nil); only storage failures are returned.
func (s *sessionStore) Restore(ctx context.Context) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.repo.Get(ctx, s.keys.session)
	if errors.Is(err, kv.ErrNotFound) {
		s.setUnauthenticated()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	var account models.Account
	if err := json.Unmarshal(data, &account); err != nil || account.ID == "" {
		s.resetCorrupt(ctx, s.keys.session, err)
		s.setUnauthenticated()
		return nil, nil
	}

	s.setAuthenticated(account)
	s.logger.Debug(ctx, "session restored", "account_id", account.ID)
	return &account, nil
}

func (s *sessionStore) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *sessionStore) Current() (models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.state == models.SessionAuthenticated
}

func (s *sessionStore) setAuthenticated(account models.Account) {
	s.state = models.SessionAuthenticated
	s.account = account
}

func (s *sessionStore) setUnauthenticated() {
	s.state = models.SessionUnauthenticated
	s.account = models.Account{}
}

func (s *sessionStore) loadAccounts(ctx context.Context) ([]models.Account, error) {
	return loadCollection[models.Account](ctx, s, s.keys.accounts)
}

func (s *sessionStore) loadCredentials(ctx context.Context) ([]models.Credential, error) {
	return loadCollection[models.Credential](ctx, s, s.keys.credentials)
}

// loadCollection reads a JSON array stored under key. Absent and corrupt
// values both read as empty; a corrupt value is also deleted.
func loadCollection[T any](ctx context.Context, s *sessionStore, key string) ([]T, error) {
	data, err := s.repo.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.resetCorrupt(ctx, key, err)
		return nil, nil
	}
	return items, nil
}

func (s *sessionStore) resetCorrupt(ctx context.Context, key string, cause error) {
	err := fmt.Errorf("%w: %s", ErrCorruptState, key)
	if cause != nil {
		err = fmt.Errorf("%w: %v", err, cause)
	}
	s.logger.Warn(ctx, "resetting unreadable record", "key", key, "error", err)

	if delErr := s.repo.Delete(ctx, key); delErr != nil {
		s.logger.Error(ctx, "failed to reset record", "key", key, "error", delErr)
	}
}

func withoutCredential(credentials []models.Credential, email string) []models.Credential {
	out := credentials[:0:0]
	for _, c := range credentials {
		if c.Email != email {
			out = append(out, c)
		}
	}
	return out
}

// encodeBatch marshals alternating key/value arguments into kv entries.
func encodeBatch(pairs ...any) ([]kv.Entry, error) {
	entries := make([]kv.Entry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("batch key %d is %T, want string", i/2, pairs[i])
		}
		data, err := json.Marshal(pairs[i+1])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		entries = append(entries, kv.Entry{Key: key, Value: data})
	}
	return entries, nil
}
