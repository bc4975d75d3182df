package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/webkech/internal/client/models"
	"github.com/dmitrijs2005/webkech/internal/client/repositories/kv"
	"github.com/dmitrijs2005/webkech/internal/clock"
	"github.com/dmitrijs2005/webkech/internal/cryptox"
	"github.com/dmitrijs2005/webkech/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fastKDF() cryptox.Params {
	return cryptox.Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func sequentialIDs(t *testing.T) {
	t.Helper()
	orig := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("acc-%d", n)
	}
	t.Cleanup(func() { newID = orig })
}

func newStore(t *testing.T, repo kv.Repository) SessionStore {
	t.Helper()
	return NewSessionStore(repo, logging.NewDiscardLogger(), clock.NewFixed(testNow),
		StoreConfig{Namespace: "webkech", KDF: fastKDF()})
}

func setupSQLite(t *testing.T) kv.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return kv.NewSQLiteRepository(db)
}

func readJSON(t *testing.T, repo kv.Repository, key string, v any) {
	t.Helper()
	data, err := repo.Get(context.Background(), key)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

// failingRepo wraps a repository and fails selected operations.
type failingRepo struct {
	kv.Repository
	GetErr    error
	SetErr    error
	DeleteErr error
	BatchErr  error
}

func (f *failingRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return f.Repository.Get(ctx, key)
}

func (f *failingRepo) Set(ctx context.Context, key string, value []byte) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	return f.Repository.Set(ctx, key, value)
}

func (f *failingRepo) Delete(ctx context.Context, key string) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	return f.Repository.Delete(ctx, key)
}

func (f *failingRepo) SetBatch(ctx context.Context, entries ...kv.Entry) error {
	if f.BatchErr != nil {
		return f.BatchErr
	}
	return f.Repository.SetBatch(ctx, entries...)
}

// ---- register ----

func TestRegister_ThenRestore_ReturnsAccount(t *testing.T) {
	for name, repo := range map[string]func(*testing.T) kv.Repository{
		"memory": func(*testing.T) kv.Repository { return kv.NewMemoryRepository() },
		"sqlite": setupSQLite,
	} {
		t.Run(name, func(t *testing.T) {
			r := repo(t)
			ctx := context.Background()

			acc, err := newStore(t, r).Register(ctx, "alice@example.com", []byte("secret1"))
			require.NoError(t, err)
			assert.Equal(t, "alice@example.com", acc.Email)
			assert.NotEmpty(t, acc.ID)
			assert.Equal(t, testNow, acc.CreatedAt)

			// a fresh handle over the same medium simulates a restart
			restarted := newStore(t, r)
			assert.Equal(t, models.SessionUnknown, restarted.State())

			got, err := restarted.Restore(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, acc, *got)
			assert.Equal(t, models.SessionAuthenticated, restarted.State())
		})
	}
}

func TestRegister_PersistsAccountCredentialAndSession(t *testing.T) {
	sequentialIDs(t)
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)

	acc, err := store.Register(context.Background(), "bob@example.com", []byte("hunter22"))
	require.NoError(t, err)
	assert.Equal(t, "acc-1", acc.ID)

	var accounts []models.Account
	readJSON(t, repo, "webkech:accounts", &accounts)
	assert.Equal(t, []models.Account{acc}, accounts)

	var creds []models.Credential
	readJSON(t, repo, "webkech:credentials", &creds)
	require.Len(t, creds, 1)
	assert.Equal(t, "bob@example.com", creds[0].Email)
	assert.Equal(t, "acc-1", creds[0].AccountID)
	assert.NotContains(t, creds[0].SecretHash, "hunter22")

	ok, err := cryptox.VerifySecret(creds[0].SecretHash, []byte("hunter22"))
	require.NoError(t, err)
	assert.True(t, ok)

	var session models.Account
	readJSON(t, repo, "webkech:session", &session)
	assert.Equal(t, acc, session)

	current, ok := store.Current()
	assert.True(t, ok)
	assert.Equal(t, acc, current)
}

func TestRegister_Duplicate_LeavesOriginalUnchanged(t *testing.T) {
	sequentialIDs(t)
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)
	ctx := context.Background()

	first, err := store.Register(ctx, "carol@example.com", []byte("original"))
	require.NoError(t, err)

	before, err := repo.Get(ctx, "webkech:credentials")
	require.NoError(t, err)

	_, err = store.Register(ctx, "carol@example.com", []byte("another"))
	require.ErrorIs(t, err, ErrDuplicateAccount)
	assert.Equal(t, "Email already registered.", UserMessage(err))

	after, err := repo.Get(ctx, "webkech:credentials")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	var accounts []models.Account
	readJSON(t, repo, "webkech:accounts", &accounts)
	assert.Equal(t, []models.Account{first}, accounts)

	_, err = store.Login(ctx, "carol@example.com", []byte("original"))
	require.NoError(t, err)
}

func TestRegister_EmailIsCaseSensitive(t *testing.T) {
	store := newStore(t, kv.NewMemoryRepository())
	ctx := context.Background()

	_, err := store.Register(ctx, "dave@example.com", []byte("pw1234"))
	require.NoError(t, err)
	_, err = store.Register(ctx, "Dave@example.com", []byte("pw1234"))
	require.NoError(t, err)
}

func TestRegister_OverwritesExistingSession(t *testing.T) {
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)
	ctx := context.Background()

	_, err := store.Register(ctx, "one@example.com", []byte("pw1234"))
	require.NoError(t, err)
	second, err := store.Register(ctx, "two@example.com", []byte("pw1234"))
	require.NoError(t, err)

	var session models.Account
	readJSON(t, repo, "webkech:session", &session)
	assert.Equal(t, second, session)
}

func TestRegister_ReplacesOrphanCredential(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()
	orphan, err := json.Marshal([]models.Credential{{Email: "eve@example.com", SecretHash: "stale", AccountID: "gone"}})
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, "webkech:credentials", orphan))

	store := newStore(t, repo)
	_, err = store.Register(ctx, "eve@example.com", []byte("fresh1"))
	require.NoError(t, err)

	var creds []models.Credential
	readJSON(t, repo, "webkech:credentials", &creds)
	require.Len(t, creds, 1)
	assert.NotEqual(t, "gone", creds[0].AccountID)

	require.NoError(t, store.Logout(ctx))
	_, err = store.Login(ctx, "eve@example.com", []byte("fresh1"))
	require.NoError(t, err)
}

func TestRegister_BatchFailure_KeepsState(t *testing.T) {
	repo := &failingRepo{Repository: kv.NewMemoryRepository(), BatchErr: errors.New("disk full")}
	store := newStore(t, repo)

	_, err := store.Register(context.Background(), "frank@example.com", []byte("pw1234"))
	require.ErrorContains(t, err, "save registration: disk full")
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestRegister_StorageReadFailure(t *testing.T) {
	repo := &failingRepo{Repository: kv.NewMemoryRepository(), GetErr: errors.New("io")}
	_, err := newStore(t, repo).Register(context.Background(), "x@example.com", []byte("pw1234"))
	require.ErrorContains(t, err, "load webkech:accounts: io")
}

// ---- login ----

func TestLogin_Success_PersistsSession(t *testing.T) {
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)
	ctx := context.Background()

	acc, err := store.Register(ctx, "gina@example.com", []byte("pw1234"))
	require.NoError(t, err)
	require.NoError(t, store.Logout(ctx))

	got, err := store.Login(ctx, "gina@example.com", []byte("pw1234"))
	require.NoError(t, err)
	assert.Equal(t, acc, got)
	assert.Equal(t, models.SessionAuthenticated, store.State())

	var session models.Account
	readJSON(t, repo, "webkech:session", &session)
	assert.Equal(t, acc, session)
}

func TestLogin_WrongSecret_DoesNotTouchSession(t *testing.T) {
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)
	ctx := context.Background()

	acc, err := store.Register(ctx, "hal@example.com", []byte("right1"))
	require.NoError(t, err)

	_, err = store.Login(ctx, "hal@example.com", []byte("wrong1"))
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, "Invalid credentials.", UserMessage(err))

	var session models.Account
	readJSON(t, repo, "webkech:session", &session)
	assert.Equal(t, acc, session, "failed login must not change the slot")

	current, ok := store.Current()
	assert.True(t, ok)
	assert.Equal(t, acc, current)
}

func TestLogin_WrongSecret_WhenLoggedOut_StaysLoggedOut(t *testing.T) {
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)
	ctx := context.Background()

	_, err := store.Register(ctx, "ivy@example.com", []byte("right1"))
	require.NoError(t, err)
	require.NoError(t, store.Logout(ctx))

	_, err = store.Login(ctx, "ivy@example.com", []byte("wrong1"))
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = repo.Get(ctx, "webkech:session")
	require.ErrorIs(t, err, kv.ErrNotFound)
	assert.Equal(t, models.SessionUnauthenticated, store.State())
}

func TestLogin_UnknownEmail(t *testing.T) {
	store := newStore(t, kv.NewMemoryRepository())

	_, err := store.Login(context.Background(), "nobody@example.com", []byte("pw1234"))
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.NotErrorIs(t, err, ErrAccountRecordMissing)
	assert.Equal(t, "Account not found. Please register first.", UserMessage(err))
}

func TestLogin_CredentialWithoutAccount(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()
	hash, err := cryptox.HashSecret([]byte("pw1234"), fastKDF())
	require.NoError(t, err)
	creds, err := json.Marshal([]models.Credential{{Email: "jo@example.com", SecretHash: hash, AccountID: "missing"}})
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, "webkech:credentials", creds))

	store := newStore(t, repo)
	_, err = store.Login(ctx, "jo@example.com", []byte("pw1234"))
	require.ErrorIs(t, err, ErrAccountRecordMissing)
	require.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, "Account not found.", UserMessage(err))

	_, err = repo.Get(ctx, "webkech:session")
	require.ErrorIs(t, err, kv.ErrNotFound)
}

func TestLogin_PlaintextStoredSecret_FailsClosed(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()
	accounts, _ := json.Marshal([]models.Account{{ID: "1", Email: "kim@example.com"}})
	creds, _ := json.Marshal([]models.Credential{{Email: "kim@example.com", SecretHash: "pw1234", AccountID: "1"}})
	require.NoError(t, repo.Set(ctx, "webkech:accounts", accounts))
	require.NoError(t, repo.Set(ctx, "webkech:credentials", creds))

	_, err := newStore(t, repo).Login(ctx, "kim@example.com", []byte("pw1234"))
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_ExcessiveStoredCost_FailsClosed(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()
	hostile := "$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U"
	accounts, _ := json.Marshal([]models.Account{{ID: "1", Email: "a@b.c"}})
	creds, _ := json.Marshal([]models.Credential{{Email: "a@b.c", SecretHash: hostile, AccountID: "1"}})
	require.NoError(t, repo.Set(ctx, "webkech:accounts", accounts))
	require.NoError(t, repo.Set(ctx, "webkech:credentials", creds))

	store := newStore(t, repo)
	_, err := store.Login(ctx, "a@b.c", []byte("whatever"))
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, "Invalid credentials.", UserMessage(err))

	_, ok := store.Current()
	assert.False(t, ok)
}

func TestLogin_SessionWriteFailure(t *testing.T) {
	mem := kv.NewMemoryRepository()
	ctx := context.Background()
	_, err := newStore(t, mem).Register(ctx, "lee@example.com", []byte("pw1234"))
	require.NoError(t, err)

	store := newStore(t, &failingRepo{Repository: mem, SetErr: errors.New("readonly")})
	_, err = store.Login(ctx, "lee@example.com", []byte("pw1234"))
	require.ErrorContains(t, err, "save session: readonly")
	_, ok := store.Current()
	assert.False(t, ok)
}

// ---- logout / restore ----

func TestLogout_ThenRestore_ReturnsNil(t *testing.T) {
	repo := kv.NewMemoryRepository()
	store := newStore(t, repo)
	ctx := context.Background()

	_, err := store.Register(ctx, "max@example.com", []byte("pw1234"))
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.Logout(ctx), "logout is idempotent")
	assert.Equal(t, models.SessionUnauthenticated, store.State())

	restarted := newStore(t, repo)
	got, err := restarted.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, models.SessionUnauthenticated, restarted.State())
}

func TestLogout_WithoutSession_IsNoop(t *testing.T) {
	store := newStore(t, kv.NewMemoryRepository())
	require.NoError(t, store.Logout(context.Background()))
	assert.Equal(t, models.SessionUnauthenticated, store.State())
}

func TestLogout_DeleteFailure_StillClearsMemory(t *testing.T) {
	mem := kv.NewMemoryRepository()
	ctx := context.Background()
	store := newStore(t, &failingRepo{Repository: mem, DeleteErr: errors.New("locked")})

	_, err := store.Register(ctx, "ned@example.com", []byte("pw1234"))
	require.NoError(t, err)

	require.ErrorContains(t, store.Logout(ctx), "clear session: locked")
	assert.Equal(t, models.SessionUnauthenticated, store.State())
}

func TestRestore_EmptyStorage(t *testing.T) {
	store := newStore(t, kv.NewMemoryRepository())
	assert.Equal(t, models.SessionUnknown, store.State())

	got, err := store.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, models.SessionUnauthenticated, store.State())
}

func TestRestore_CorruptSession_ClearsSlot(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":   `{"id":`,
		"json null":  `null`,
		"no id":      `{"email":"x@example.com"}`,
		"wrong type": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			repo := kv.NewMemoryRepository()
			ctx := context.Background()
			require.NoError(t, repo.Set(ctx, "webkech:session", []byte(payload)))

			store := newStore(t, repo)
			got, err := store.Restore(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)
			assert.Equal(t, models.SessionUnauthenticated, store.State())

			_, err = repo.Get(ctx, "webkech:session")
			require.ErrorIs(t, err, kv.ErrNotFound)
		})
	}
}

func TestRestore_StorageFailure_StaysUnknown(t *testing.T) {
	repo := &failingRepo{Repository: kv.NewMemoryRepository(), GetErr: errors.New("io")}
	store := newStore(t, repo)

	got, err := store.Restore(context.Background())
	require.ErrorContains(t, err, "restore session: io")
	assert.Nil(t, got)
	assert.Equal(t, models.SessionUnknown, store.State())
}

func TestCorruptCollections_ReadAsEmpty(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "webkech:accounts", []byte("garbage")))
	require.NoError(t, repo.Set(ctx, "webkech:credentials", []byte("{")))

	store := newStore(t, repo)

	_, err := store.Login(ctx, "a@example.com", []byte("pw1234"))
	require.ErrorIs(t, err, ErrAccountNotFound)

	acc, err := store.Register(ctx, "a@example.com", []byte("pw1234"))
	require.NoError(t, err)

	var accounts []models.Account
	readJSON(t, repo, "webkech:accounts", &accounts)
	assert.Equal(t, []models.Account{acc}, accounts)
}

func TestNamespaces_AreIsolated(t *testing.T) {
	repo := kv.NewMemoryRepository()
	ctx := context.Background()
	a := NewSessionStore(repo, logging.NewDiscardLogger(), clock.NewFixed(testNow), StoreConfig{Namespace: "tenant-a", KDF: fastKDF()})
	b := NewSessionStore(repo, logging.NewDiscardLogger(), clock.NewFixed(testNow), StoreConfig{Namespace: "tenant-b", KDF: fastKDF()})

	_, err := a.Register(ctx, "same@example.com", []byte("pw1234"))
	require.NoError(t, err)
	_, err = b.Register(ctx, "same@example.com", []byte("pw1234"))
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx))
	_, ok := b.Current()
	assert.True(t, ok)

	got, err := NewSessionStore(repo, logging.NewDiscardLogger(), clock.NewFixed(testNow), StoreConfig{Namespace: "tenant-b", KDF: fastKDF()}).Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestNewSessionStore_EmptyNamespaceUsesDefault(t *testing.T) {
	repo := kv.NewMemoryRepository()
	store := NewSessionStore(repo, logging.NewDiscardLogger(), clock.NewFixed(testNow), StoreConfig{KDF: fastKDF()})

	_, err := store.Register(context.Background(), "o@example.com", []byte("pw1234"))
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), "webkech:session")
	require.NoError(t, err)
}

func TestUserMessage_Passthrough(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}
