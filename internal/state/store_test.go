package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/core"
)

// mapKV records every write so tests can check what was persisted.
type mapKV struct {
	mu      sync.Mutex
	values  map[string]string
	writes  []string
	failSet map[string]bool
	failGet bool
}

func newMapKV() *mapKV {
	return &mapKV{values: map[string]string{}, failSet: map[string]bool{}}
}

func (m *mapKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errors.New("read failed")
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet[key] {
		return errors.New("quota exceeded")
	}
	m.values[key] = value
	m.writes = append(m.writes, "set:"+key)
	return nil
}

func (m *mapKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	m.writes = append(m.writes, "del:"+key)
	return nil
}

func (m *mapKV) takeWrites() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.writes
	m.writes = nil
	return w
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setUser(s core.State) (core.State, error) {
	s.CurrentUser = &core.User{ID: "user_ana", Name: "Ana", Email: "ana@cashflow.app"}
	return s, nil
}

func TestLoadDefaultsOnEmptyKV(t *testing.T) {
	s := Load(context.Background(), newMapKV(), DefaultDefaults(), quietLogger())

	assert.Empty(t, s.Businesses)
	assert.NotNil(t, s.Businesses)
	assert.Nil(t, s.CurrentUser)
	assert.Empty(t, s.ActiveBusinessID)
	assert.Equal(t, core.ThemeLight, s.Theme)
	assert.Equal(t, core.DefaultCurrency, s.Currency)
	assert.Equal(t, core.DefaultLanguage, s.Language)
}

func TestLoadFallsBackPerKey(t *testing.T) {
	kv := newMapKV()
	kv.values[KeyBusinesses] = "{not json"
	kv.values[KeyTheme] = `"dark"`
	kv.values[KeyCurrency] = `"XYZ"`
	kv.values[KeyUser] = `{"id":"user_ana","name":"Ana","email":"ana@cashflow.app"}`
	kv.values[KeyActiveBusiness] = `"biz_1"`

	s := Load(context.Background(), kv, DefaultDefaults(), quietLogger())

	assert.Empty(t, s.Businesses, "malformed businesses fall back to empty")
	assert.Equal(t, core.ThemeDark, s.Theme)
	assert.Equal(t, core.DefaultCurrency, s.Currency, "unknown currency falls back")
	require.NotNil(t, s.CurrentUser)
	assert.Equal(t, "Ana", s.CurrentUser.Name)
	assert.Equal(t, "biz_1", s.ActiveBusinessID)
}

func TestLoadReadErrorUsesDefaults(t *testing.T) {
	kv := newMapKV()
	kv.values[KeyTheme] = `"dark"`
	kv.failGet = true

	s := Load(context.Background(), kv, DefaultDefaults(), quietLogger())
	assert.Equal(t, core.ThemeLight, s.Theme)
}

func TestRoundTripThroughKV(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	st := Open(ctx, kv, DefaultDefaults(), quietLogger())

	_, err := st.Update(ctx, func(s core.State) (core.State, error) {
		s, _ = setUser(s)
		s.Businesses = []core.Business{{
			ID:   "biz_1",
			Name: "Shop",
			Books: []core.Book{{ID: "book_1", Name: "Cash", Transactions: []core.Transaction{{
				ID: "tx_1", Date: core.NewDate(2024, 1, 2), Description: "Sale",
				Amount: core.MustAmount("12.50"), Type: core.Income,
			}}}},
			Team: []core.TeamMember{{ID: "user_ana", Email: "ana@cashflow.app", Name: "Ana", Role: core.RoleOwner}},
		}}
		s.ActiveBusinessID = "biz_1"
		s.Theme = core.ThemeDark
		s.Currency = "USD"
		s.Language = core.LanguageArabic
		return s, nil
	})
	require.NoError(t, err)

	reloaded := Open(ctx, kv, DefaultDefaults(), quietLogger()).Snapshot()
	want := st.Snapshot()

	assert.Equal(t, want.ActiveBusinessID, reloaded.ActiveBusinessID)
	assert.Equal(t, want.CurrentUser, reloaded.CurrentUser)
	assert.Equal(t, core.ThemeDark, reloaded.Theme)
	assert.Equal(t, core.Currency("USD"), reloaded.Currency)
	assert.Equal(t, core.DefaultLanguage, reloaded.Language, "language is not persisted")
	require.Len(t, reloaded.Businesses, 1)
	tx := reloaded.Businesses[0].Books[0].Transactions[0]
	assert.True(t, tx.Amount.Equal(core.MustAmount("12.5")))
	assert.Equal(t, "2024-01-02", tx.Date.String())
}

func TestUpdateWritesOnlyChangedKeys(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	st := Open(ctx, kv, DefaultDefaults(), quietLogger())

	_, err := st.Update(ctx, func(s core.State) (core.State, error) {
		s.Theme = core.ThemeDark
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"set:" + KeyTheme}, kv.takeWrites())

	_, err = st.Update(ctx, setUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"set:" + KeyUser}, kv.takeWrites())

	_, err = st.Update(ctx, func(s core.State) (core.State, error) {
		s.CurrentUser = nil
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"del:" + KeyUser}, kv.takeWrites())
}

func TestUpdateErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	st := Open(ctx, kv, DefaultDefaults(), quietLogger())
	calls := 0
	cancel := st.Subscribe(func(core.State) { calls++ })
	defer cancel()

	boom := errors.New("boom")
	_, err := st.Update(ctx, func(s core.State) (core.State, error) {
		s.Theme = core.ThemeDark
		return s, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, core.ThemeLight, st.Snapshot().Theme)
	assert.Equal(t, uint64(0), st.Version())
	assert.Zero(t, calls)
	assert.Empty(t, kv.takeWrites())
}

func TestUpdateWithEndedContextAppliesNothing(t *testing.T) {
	kv := newMapKV()
	st := Open(context.Background(), kv, DefaultDefaults(), quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := st.Update(ctx, func(s core.State) (core.State, error) {
		called = true
		s.Theme = core.ThemeDark
		return s, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	assert.Equal(t, core.ThemeLight, st.Snapshot().Theme)
	assert.Equal(t, uint64(0), st.Version())
	assert.Empty(t, kv.takeWrites())
}

func TestPersistFailureKeepsMemoryStateAndRetries(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	kv.failSet[KeyTheme] = true
	st := Open(ctx, kv, DefaultDefaults(), quietLogger())

	next, err := st.Update(ctx, func(s core.State) (core.State, error) {
		s.Theme = core.ThemeDark
		return s, nil
	})
	require.NoError(t, err, "persistence errors are not surfaced")
	assert.Equal(t, core.ThemeDark, next.Theme)
	assert.Equal(t, core.ThemeDark, st.Snapshot().Theme)
	_, stored := kv.values[KeyTheme]
	assert.False(t, stored)

	kv.failSet[KeyTheme] = false
	_, err = st.Update(ctx, setUser)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"set:" + KeyTheme, "set:" + KeyUser}, kv.takeWrites())
}

func TestSubscribeAndCancel(t *testing.T) {
	ctx := context.Background()
	st := Open(ctx, newMapKV(), DefaultDefaults(), quietLogger())

	var seen []core.Theme
	cancel := st.Subscribe(func(s core.State) { seen = append(seen, s.Theme) })

	_, _ = st.Update(ctx, func(s core.State) (core.State, error) {
		s.Theme = core.ThemeDark
		return s, nil
	})
	cancel()
	_, _ = st.Update(ctx, func(s core.State) (core.State, error) {
		s.Theme = core.ThemeLight
		return s, nil
	})

	assert.Equal(t, []core.Theme{core.ThemeDark}, seen)
	assert.Equal(t, uint64(2), st.Version())
}

func TestListenerMayUpdateStore(t *testing.T) {
	ctx := context.Background()
	st := Open(ctx, newMapKV(), DefaultDefaults(), quietLogger())

	st.Subscribe(func(s core.State) {
		if s.CurrentUser != nil && s.ActiveBusinessID == "" {
			_, _ = st.Update(ctx, func(s core.State) (core.State, error) {
				s.ActiveBusinessID = "biz_fallback"
				return s, nil
			})
		}
	})

	_, err := st.Update(ctx, setUser)
	require.NoError(t, err)
	assert.Equal(t, "biz_fallback", st.Snapshot().ActiveBusinessID)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	st := Open(ctx, newMapKV(), DefaultDefaults(), quietLogger())
	_, _ = st.Update(ctx, func(s core.State) (core.State, error) {
		s.Businesses = []core.Business{{ID: "biz_1", Name: "Shop"}}
		return s, nil
	})

	snap := st.Snapshot()
	snap.Businesses[0].Name = "Changed"
	assert.Equal(t, "Shop", st.Snapshot().Businesses[0].Name)
}
