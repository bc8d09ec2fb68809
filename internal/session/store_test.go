package session

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSetAndClear(t *testing.T) {
	s := New(nil, nil)
	assert.False(t, s.IsAuthenticated())

	s.SetToken("abc")
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "abc", s.Token())

	s.ClearToken()
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "", s.Token())

	// Idempotent.
	s.ClearToken()
	assert.False(t, s.IsAuthenticated())
}

func TestStoreEmptyTokenIsNotAuthenticated(t *testing.T) {
	s := New(nil, nil)
	s.SetToken("")
	assert.False(t, s.IsAuthenticated())
}

func TestStoreRecoversPersistedToken(t *testing.T) {
	mem := &Memory{}
	New(mem, nil).SetToken("persisted")

	reloaded := New(mem, nil)
	assert.True(t, reloaded.IsAuthenticated())
	assert.Equal(t, "persisted", reloaded.Token())
}

func TestStoreClearRemovesPersistedToken(t *testing.T) {
	mem := &Memory{}
	s := New(mem, nil)
	s.SetToken("tok")
	s.ClearToken()

	assert.False(t, New(mem, nil).IsAuthenticated())
}

func TestStorePersistFailureDegradesToMemory(t *testing.T) {
	mem := &Memory{Err: errors.New("disk full")}
	s := New(mem, nil)
	assert.False(t, s.IsAuthenticated(), "unreadable storage means no recovered token")

	s.SetToken("tok")
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "tok", s.Token())

	s.ClearToken()
	assert.False(t, s.IsAuthenticated())
}

func TestStoreClearTokenIf(t *testing.T) {
	mem := &Memory{}
	s := New(mem, nil)
	s.SetToken("new")

	assert.False(t, s.ClearTokenIf("old"))
	assert.Equal(t, "new", s.Token())
	persisted, err := mem.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", persisted)

	assert.True(t, s.ClearTokenIf("new"))
	assert.False(t, s.IsAuthenticated())
	persisted, err = mem.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

// gatedPersister blocks Save until released and records the durable state.
type gatedPersister struct {
	Memory
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPersister) Save(token string) error {
	g.entered <- struct{}{}
	<-g.release
	return g.Memory.Save(token)
}

func TestStoreWritesReachPersisterInOrder(t *testing.T) {
	g := &gatedPersister{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := New(g, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SetToken("fresh")
	}()
	<-g.entered

	go func() {
		defer wg.Done()
		s.ClearToken()
	}()
	// The clear waits for the login's durable write, so memory keeps the
	// token meanwhile.
	assert.Never(t, func() bool { return s.Token() != "fresh" }, 50*time.Millisecond, 5*time.Millisecond)

	close(g.release)
	wg.Wait()

	assert.Empty(t, s.Token())
	persisted, err := g.Memory.Load()
	require.NoError(t, err)
	assert.Empty(t, persisted, "durable state must match memory")
}

func TestTokenFilePath(t *testing.T) {
	f := NewTokenFile("/tmp/test-dir")
	assert.Equal(t, "/tmp/test-dir/session.json", f.Path())
}

func TestTokenFileLoadMissing(t *testing.T) {
	f := NewTokenFile(t.TempDir())
	token, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "", token)
}

func TestTokenFileSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f := NewTokenFile(dir)

	require.NoError(t, f.Save("secret-token"))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"secret-token"}`, string(data))

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTokenFileClear(t *testing.T) {
	f := NewTokenFile(t.TempDir())
	require.NoError(t, f.Save("x"))
	require.NoError(t, f.Clear())
	require.NoError(t, f.Clear(), "clearing twice is fine")

	token, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "", token)
}

func TestTokenFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, tokenFileName), []byte("{not json"), 0o600))

	_, err := NewTokenFile(dir).Load()
	assert.Error(t, err)

	// The store treats corruption as logged out rather than failing.
	assert.False(t, New(NewTokenFile(dir), nil).IsAuthenticated())
}
