package infra

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/app_lock/internal/domain"
)

// staticSettings is a test double for domain.SettingsProvider
type staticSettings struct {
	mu sync.Mutex
	s  domain.Settings
}

func newStaticSettings() *staticSettings {
	return &staticSettings{s: domain.DefaultSettings()}
}

func (m *staticSettings) Current() domain.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

// runRegistryContract exercises the behaviour every LockedAppRegistry
// backend must share.
func runRegistryContract(t *testing.T, open func(t *testing.T) domain.LockedAppRegistry) {
	t.Run("empty registry", func(t *testing.T) {
		reg := open(t)

		locked, err := reg.IsLocked("com.a")
		require.NoError(t, err)
		assert.False(t, locked)

		d, err := reg.GetDuration("com.a")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultDurationSentinel, d)

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("set then read back", func(t *testing.T) {
		reg := open(t)
		require.NoError(t, reg.SetDuration("com.a", 5))

		locked, err := reg.IsLocked("com.a")
		require.NoError(t, err)
		assert.True(t, locked)

		d, err := reg.GetDuration("com.a")
		require.NoError(t, err)
		assert.Equal(t, int32(5), d)
	})

	t.Run("sentinel entry is still locked", func(t *testing.T) {
		reg := open(t)
		require.NoError(t, reg.SetDuration("com.a", domain.DefaultDurationSentinel))

		locked, err := reg.IsLocked("com.a")
		require.NoError(t, err)
		assert.True(t, locked)

		d, err := reg.GetDuration("com.a")
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultDurationSentinel, d)
	})

	t.Run("overwrite keeps one entry", func(t *testing.T) {
		reg := open(t)
		require.NoError(t, reg.SetDuration("com.a", 5))
		require.NoError(t, reg.SetDuration("com.a", 30))

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Equal(t, []domain.LockedAppEntry{{AppID: "com.a", HoldDurationSeconds: 30}}, entries)
	})

	t.Run("remove and remove absent", func(t *testing.T) {
		reg := open(t)
		require.NoError(t, reg.SetDuration("com.a", 5))
		require.NoError(t, reg.SetDuration("com.b", 7))

		require.NoError(t, reg.Remove("com.a"))
		require.NoError(t, reg.Remove("com.never"))

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Equal(t, []domain.LockedAppEntry{{AppID: "com.b", HoldDurationSeconds: 7}}, entries)
	})

	t.Run("list is sorted", func(t *testing.T) {
		reg := open(t)
		for _, id := range []string{"org.z", "com.b", "com.a"} {
			require.NoError(t, reg.SetDuration(id, 3))
		}

		entries, err := reg.List()
		require.NoError(t, err)
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.AppID
		}
		assert.Equal(t, []string{"com.a", "com.b", "org.z"}, ids)
	})

	t.Run("concurrent writers lose nothing", func(t *testing.T) {
		reg := open(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, reg.SetDuration(string(rune('a'+i)), int32(i+1)))
			}(i)
		}
		wg.Wait()

		entries, err := reg.List()
		require.NoError(t, err)
		assert.Len(t, entries, 20)
	})
}
