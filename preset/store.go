package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var ErrNotFound = errors.New("preset not found")

const presetType = "curve_preset"

// envelope is the on-disk layout of a preset file. Files without a
// settings member are read as bare settings.
type envelope struct {
	Version  string          `json:"version"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Settings json.RawMessage `json:"settings"`
}

// Store holds the presets found in one folder. It reads the folder only on
// Reload, so files changed behind its back are not seen until then.
type Store struct {
	dir     string
	logger  *slog.Logger
	presets map[string]json.RawMessage
}

// NewStore loads every preset in dir. A missing folder gives an empty
// store.
func NewStore(logger *slog.Logger, dir string) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{dir: dir, logger: logger.With("dir", dir)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Dir() string { return s.dir }

// Reload replaces the known presets with the *.json files currently in the
// folder. Unreadable files are logged and skipped.
func (s *Store) Reload() error {
	presets := make(map[string]json.RawMessage)
	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not list presets in %q: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		name, raw, err := readPreset(path)
		if err != nil {
			s.logger.Warn("skipping preset", "file", e.Name(), "error", err)
			continue
		}
		presets[name] = raw
		s.logger.Debug("loaded preset", "name", name)
	}
	s.presets = presets
	return nil
}

func readPreset(path string) (string, json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("could not decode %q: %w", path, err)
	}
	name := env.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	raw := env.Settings
	if len(raw) == 0 {
		raw = json.RawMessage(data)
	}
	return name, raw, nil
}

// Names lists the known presets in sorted order.
func (s *Store) Names() []string {
	return slices.Sorted(maps.Keys(s.presets))
}

// Get returns the named preset on top of Defaults.
func (s *Store) Get(name string) (Settings, error) {
	return s.Resolve(name, Defaults())
}

// Resolve decodes the named preset over base: fields stored in the preset
// replace those of base, the rest are kept.
func (s *Store) Resolve(name string, base Settings) (Settings, error) {
	raw, ok := s.presets[name]
	if !ok {
		return base, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return base, fmt.Errorf("could not decode preset %q: %w", name, err)
	}
	if base.Version == 0 {
		base.Version = Version
	}
	return base, nil
}

// Save writes settings as dir/name.json and makes it available under
// name. It returns the path written.
func (s *Store) Save(name string, settings Settings) (path string, err error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid preset name %q", name)
	}
	settings.Version = Version
	raw, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("could not encode preset %q: %w", name, err)
	}
	data, err := json.MarshalIndent(envelope{
		Version:  "1.0",
		Name:     name,
		Type:     presetType,
		Settings: raw,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("could not encode preset %q: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create preset folder %q: %w", s.dir, err)
	}
	path = filepath.Join(s.dir, name+".json")
	if err := writeFile(path, append(data, '\n')); err != nil {
		return "", err
	}
	s.presets[name] = raw
	s.logger.Info("saved preset", "name", name, "file", path)
	return path, nil
}

// writeFile replaces path through a temporary file in the same folder.
func writeFile(path string, data []byte) (err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	outFile, err := os.CreateTemp(dir, name)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", name, err)
	}
	defer func() {
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", name, defErr)
		}
		if err == nil {
			if defErr := os.Rename(outFile.Name(), path); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", name, defErr)
			}
		}
		if err != nil {
			os.Remove(outFile.Name())
		}
	}()
	if _, err = outFile.Write(data); err != nil {
		return fmt.Errorf("could not write temporary destination %q: %w", name, err)
	}
	return outFile.Sync()
}
