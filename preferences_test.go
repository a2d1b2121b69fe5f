package brewsvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "go.yaml.in/yaml/v3"
)

func TestParsePreferencesExecutableForms(t *testing.T) {
	tests := []struct {
		name string
		data string
		want ExecutableSetting
	}{
		{
			name: "list",
			data: "brew_executable:\n  - /opt/homebrew/bin/brew\n  - /usr/local/bin/brew\n",
			want: ExecutableSetting{Candidates: []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew"}},
		},
		{
			name: "scalar",
			data: "brew_executable: /usr/local/bin/brew\n",
			want: ExecutableSetting{Path: "/usr/local/bin/brew"},
		},
		{
			name: "absent",
			data: "refresh: off\n",
			want: ExecutableSetting{Candidates: DefaultBrewCandidates()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePreferences([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.BrewExecutable)
		})
	}

	_, err := ParsePreferences([]byte("brew_executable:\n  path: /x\n"))
	assert.Error(t, err)
}

func TestParsePreferencesRefreshSpec(t *testing.T) {
	p, err := ParsePreferences([]byte("refresh: off\n"))
	require.NoError(t, err)
	assert.False(t, p.RefreshEnabled())

	p, err = ParsePreferences([]byte("refresh: \"*/5 * * * *\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", p.Refresh)

	_, err = ParsePreferences([]byte("refresh: nonsense\n"))
	assert.Error(t, err)

	store := NewPreferenceStore(filepath.Join(t.TempDir(), PreferencesFileName), testLogger())
	require.NoError(t, os.WriteFile(store.Path(), []byte("refresh: every tuesday\n"), FileMode))
	assert.Error(t, store.Reload())
	assert.Equal(t, DefaultRefreshSpec, store.Current().Refresh)
}

func TestPreferencesDefaults(t *testing.T) {
	p, err := ParsePreferences([]byte("settle_delay: 2s\nwatch_dirs: [\"~/Library/LaunchAgents\"]\n"))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, p.SettleDelay)
	assert.Equal(t, DefaultCommandTimeout, p.CommandTimeout)
	assert.Equal(t, DefaultRefreshSpec, p.Refresh)
	assert.True(t, p.RefreshEnabled())
	assert.Equal(t, "info", p.Log.Level)

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		assert.Equal(t, []string{filepath.Join(home, "Library/LaunchAgents")}, p.ExpandedWatchDirs())
	}

	p.Refresh = "OFF"
	assert.False(t, p.RefreshEnabled())
}

func TestExecutableSettingMarshal(t *testing.T) {
	out, err := yaml.Marshal(Preferences{BrewExecutable: ExecutableSetting{Path: "/usr/local/bin/brew"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "brew_executable: /usr/local/bin/brew")

	out, err = yaml.Marshal(Preferences{BrewExecutable: ExecutableSetting{Candidates: []string{"/a", "/b"}}})
	require.NoError(t, err)
	p, err := ParsePreferences(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, p.BrewExecutable.Candidates)
}

func TestPreferenceStoreMissingFile(t *testing.T) {
	store := NewPreferenceStore(filepath.Join(t.TempDir(), "nested", PreferencesFileName), testLogger())
	p, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), p)
}

func TestPreferenceStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), PreferencesDirName, PreferencesFileName)
	store := NewPreferenceStore(path, testLogger())

	prefs := DefaultPreferences()
	prefs.BrewExecutable = ExecutableSetting{Path: "/custom/brew"}
	prefs.Refresh = RefreshOff
	prefs.CommandTimeout = 5 * time.Second
	require.NoError(t, store.Save(prefs))

	_, err := os.Stat(path)
	require.NoError(t, err)

	other := NewPreferenceStore(path, testLogger())
	got, err := other.Load()
	require.NoError(t, err)
	assert.Equal(t, prefs, got)
	assert.Equal(t, prefs, other.Current())
}

func TestPreferenceStoreCurrentIsCopy(t *testing.T) {
	store := NewPreferenceStore(filepath.Join(t.TempDir(), PreferencesFileName), testLogger())
	p := store.Current()
	p.BrewExecutable.Candidates[0] = "/tampered"
	assert.NotEqual(t, "/tampered", store.Current().BrewExecutable.Candidates[0])
}

func TestPreferenceStoreReloadPublishes(t *testing.T) {
	path := filepath.Join(t.TempDir(), PreferencesFileName)
	store := NewPreferenceStore(path, testLogger())
	sub := store.Subscribe(1)

	require.NoError(t, os.WriteFile(path, []byte("refresh: \"*/5 * * * *\"\n"), FileMode))
	require.NoError(t, store.Reload())
	require.NoError(t, os.WriteFile(path, []byte("refresh: off\n"), FileMode))
	require.NoError(t, store.Reload())

	// a slow subscriber only sees the newest value
	select {
	case p := <-sub:
		assert.Equal(t, "off", p.Refresh)
	default:
		t.Fatal("no preferences published")
	}
	assert.Equal(t, "off", store.Current().Refresh)

	require.NoError(t, os.WriteFile(path, []byte("brew_executable: {bad: [\n"), FileMode))
	assert.Error(t, store.Reload())
	assert.Equal(t, "off", store.Current().Refresh)

	store.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)
}

func TestPreferenceStoreWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), PreferencesFileName)
	store := NewPreferenceStore(path, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanup, err := store.Watch(ctx)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, cleanup())
	}()

	require.NoError(t, os.WriteFile(path, []byte("settle_delay: 3s\n"), FileMode))
	assert.Eventually(t, func() bool {
		return store.Current().SettleDelay == 3*time.Second
	}, 3*time.Second, 20*time.Millisecond)
}
