package brewsvc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	yaml "go.yaml.in/yaml/v3"
)

// Preference file constants
const (
	// PreferencesDirName is the directory created under the user config dir
	PreferencesDirName = "brewbar"

	// PreferencesFileName is the preference file name
	PreferencesFileName = "config.yaml"

	// RefreshOff disables periodic polling when used as the refresh spec
	RefreshOff = "off"

	// FileMode is the mode preference files are written with
	FileMode = 0o644

	// DirMode is the mode for created preference directories
	DirMode = 0o755
)

// ExecutableSetting is the brew_executable preference.
//
// In YAML it is either a sequence (an ordered candidate list) or a scalar (a
// single path). Candidates are tried first, then Path.
type ExecutableSetting struct {
	Candidates []string
	Path       string
}

// IsZero reports whether neither form is set
func (e ExecutableSetting) IsZero() bool {
	return len(e.Candidates) == 0 && e.Path == ""
}

// UnmarshalYAML accepts either a scalar or a sequence of strings
func (e *ExecutableSetting) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		e.Candidates = nil
		e.Path = strings.TrimSpace(value.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		e.Candidates = list
		e.Path = ""
		return nil
	default:
		return fmt.Errorf("brew_executable: expected string or list, line %d", value.Line)
	}
}

// MarshalYAML writes the list form when candidates exist, the scalar otherwise
func (e ExecutableSetting) MarshalYAML() (any, error) {
	if len(e.Candidates) > 0 {
		return e.Candidates, nil
	}
	return e.Path, nil
}

// Preferences is the persisted user configuration
type Preferences struct {
	BrewExecutable ExecutableSetting `yaml:"brew_executable"`
	Refresh        string            `yaml:"refresh,omitempty"`
	SettleDelay    time.Duration     `yaml:"settle_delay,omitempty"`
	CommandTimeout time.Duration     `yaml:"command_timeout,omitempty"`
	WatchDirs      []string          `yaml:"watch_dirs,omitempty"`
	Log            LogConfig         `yaml:"log,omitempty"`
}

// DefaultPreferences returns the preferences used when no file exists
func DefaultPreferences() Preferences {
	p := Preferences{}
	p.applyDefaults()
	return p
}

func (p *Preferences) applyDefaults() {
	if p.BrewExecutable.IsZero() {
		p.BrewExecutable.Candidates = DefaultBrewCandidates()
	}
	if p.Refresh == "" {
		p.Refresh = DefaultRefreshSpec
	}
	if p.SettleDelay <= 0 {
		p.SettleDelay = DefaultSettleDelay
	}
	if p.CommandTimeout <= 0 {
		p.CommandTimeout = DefaultCommandTimeout
	}
	if p.Log.Level == "" {
		p.Log.Level = "info"
	}
}

// RefreshEnabled reports whether periodic polling is configured
func (p Preferences) RefreshEnabled() bool {
	return p.Refresh != "" && !strings.EqualFold(p.Refresh, RefreshOff)
}

// ExpandedWatchDirs returns WatchDirs with a leading ~ replaced by home
func (p Preferences) ExpandedWatchDirs() []string {
	home, _ := os.UserHomeDir()
	out := make([]string, 0, len(p.WatchDirs))
	for _, d := range p.WatchDirs {
		if home != "" && (d == "~" || strings.HasPrefix(d, "~/")) {
			d = filepath.Join(home, strings.TrimPrefix(d, "~"))
		}
		out = append(out, d)
	}
	return out
}

func (p Preferences) clone() Preferences {
	c := p
	c.BrewExecutable.Candidates = append([]string(nil), p.BrewExecutable.Candidates...)
	c.WatchDirs = append([]string(nil), p.WatchDirs...)
	return c
}

// DefaultPreferencesPath returns <user config dir>/brewbar/config.yaml
func DefaultPreferencesPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, PreferencesDirName, PreferencesFileName), nil
}

// ParsePreferences decodes YAML preferences, fills in defaults and rejects
// refresh specs the scheduler would not accept
func ParsePreferences(data []byte) (Preferences, error) {
	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	p.applyDefaults()
	if p.RefreshEnabled() {
		if err := ValidateRefreshSpec(p.Refresh); err != nil {
			return Preferences{}, err
		}
	}
	return p, nil
}

// PreferenceStore loads, saves and publishes preferences.
//
// Current is safe for concurrent use; readers get a private copy, so the
// executable search path can be re-read on every brew invocation.
type PreferenceStore struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	prefs Preferences

	// subsMu guards subs so publish never races Unsubscribe's close
	subsMu sync.Mutex
	subs   []chan Preferences
}

// NewPreferenceStore creates a store for path, seeded with defaults
func NewPreferenceStore(path string, log zerolog.Logger) *PreferenceStore {
	return &PreferenceStore{
		path:  path,
		log:   log,
		prefs: DefaultPreferences(),
	}
}

// Path returns the preference file location
func (s *PreferenceStore) Path() string {
	return s.path
}

// Parse reads and decodes the file without committing it.
// A missing file yields defaults.
func (s *PreferenceStore) Parse() (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("reading preferences: %w", err)
	}
	p, err := ParsePreferences(data)
	if err != nil {
		return Preferences{}, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return p, nil
}

// Load parses the file and commits the result
func (s *PreferenceStore) Load() (Preferences, error) {
	p, err := s.Parse()
	if err != nil {
		return Preferences{}, err
	}
	s.commit(p)
	return p.clone(), nil
}

// Reload re-reads the file and publishes it to subscribers on success
func (s *PreferenceStore) Reload() error {
	p, err := s.Parse()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("preference reload failed")
		return err
	}
	s.commit(p)
	s.publish(p)
	s.log.Debug().Str("path", s.path).Msg("preferences reloaded")
	return nil
}

// Current returns a copy of the committed preferences
func (s *PreferenceStore) Current() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.clone()
}

// Save writes p atomically and commits it
func (s *PreferenceStore) Save(p Preferences) error {
	p.applyDefaults()
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), DirMode); err != nil {
		return fmt.Errorf("creating preference dir: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, FileMode); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	s.commit(p)
	s.publish(p)
	return nil
}

func (s *PreferenceStore) commit(p Preferences) {
	s.mu.Lock()
	s.prefs = p.clone()
	s.mu.Unlock()
}

// Subscribe returns a channel receiving every committed reload.
// A slow subscriber only ever sees the latest value.
func (s *PreferenceStore) Subscribe(buffer int) <-chan Preferences {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Preferences, buffer)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe
func (s *PreferenceStore) Unsubscribe(ch <-chan Preferences) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			last := len(s.subs) - 1
			s.subs[i] = s.subs[last]
			s.subs[last] = nil
			s.subs = s.subs[:last]
			close(sub)
			return
		}
	}
}

func (s *PreferenceStore) publish(p Preferences) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- p.clone():
			continue
		default:
		}
		// drop the oldest pending value, then deliver the newest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p.clone():
		default:
			s.log.Debug().Int("queue_cap", cap(ch)).Msg("preference update dropped (subscriber slow)")
		}
	}
}
