package brewsvc

import (
	"fmt"
	"os"
)

// Resolver locates the brew executable
type Resolver interface {
	Resolve() (string, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func() (string, error)

// Resolve calls f
func (f ResolverFunc) Resolve() (string, error) {
	return f()
}

// SettingSource supplies the current brew_executable preference
type SettingSource interface {
	Current() Preferences
}

// PathResolver resolves brew from an ExecutableSetting.
//
// The setting is fetched on every call so edits to the preference file take
// effect without a restart.
type PathResolver struct {
	source func() ExecutableSetting
}

// NewPathResolver resolves against the live preferences of src
func NewPathResolver(src SettingSource) *PathResolver {
	return &PathResolver{source: func() ExecutableSetting {
		return src.Current().BrewExecutable
	}}
}

// NewStaticResolver resolves against a fixed setting
func NewStaticResolver(setting ExecutableSetting) *PathResolver {
	return &PathResolver{source: func() ExecutableSetting { return setting }}
}

// Resolve returns the first candidate that is an executable regular file,
// falling back to the single configured path
func (r *PathResolver) Resolve() (string, error) {
	setting := r.source()
	merr := &MultiError{}

	for _, path := range setting.Candidates {
		err := checkExecutable(path)
		if err == nil {
			return path, nil
		}
		merr.Add(err)
	}
	if setting.Path != "" {
		err := checkExecutable(setting.Path)
		if err == nil {
			return setting.Path, nil
		}
		merr.Add(err)
	}

	if cause := merr.Err(); cause != nil {
		return "", fmt.Errorf("%w: %w", ErrExecutableNotFound, cause)
	}
	return "", fmt.Errorf("%w: no candidates configured", ErrExecutableNotFound)
}

// checkExecutable reports why path is not an executable regular file
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", path)
	}
	return checkAccess(path, info.Mode())
}
