package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNoConfigFile is returned by operations that need a config file when the
// store was loaded from defaults and environment only.
var ErrNoConfigFile = errors.New("no config file configured")

// Store holds the current configuration and re-reads it on demand.
// Readers always get a copy.
type Store struct {
	mu        sync.RWMutex
	file      string
	cfg       Config
	overrides map[string]any
	listeners []func(Config)
	watcher   *viper.Viper
}

// LoadConfig loads configuration once from the .env file next to file, the
// file itself and the environment.
func LoadConfig(file string) (*Config, error) {
	s, err := Load(file)
	if err != nil {
		return nil, err
	}
	cfg := s.Snapshot()
	return &cfg, nil
}

// Load creates a store. An empty file, or a file that does not exist, leaves
// defaults and environment variables as the only sources.
func Load(file string) (*Store, error) {
	dir := "."
	if file != "" {
		dir = filepath.Dir(file)
	}
	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	s := &Store{file: file, overrides: make(map[string]any)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// File returns the config file path, or "" when none was given.
func (s *Store) File() string {
	return s.file
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.WorldBlacklist = append([]string(nil), s.cfg.WorldBlacklist...)
	cfg.Renderer.Maps = append([]MapConfig(nil), s.cfg.Renderer.Maps...)
	return cfg
}

// OnChange registers fn to run after every successful Reload or Toggle.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads every source.
func (s *Store) Reload() error {
	s.mu.Lock()
	cfg, _, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = cfg
	listeners := append([]func(Config){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

func (s *Store) read() (Config, *viper.Viper, error) {
	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SETTINGS_DEBUG -> settings.debug)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if s.file != "" {
		v.SetConfigFile(s.file)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil, fmt.Errorf("failed to read config file %s: %w", s.file, err)
		}
	}
	for key, value := range s.overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, v, nil
}

// Toggle flips a boolean key, persists it to the config file and returns the
// new value. Without a config file the change lives in memory only.
func (s *Store) Toggle(key string) (bool, error) {
	s.mu.Lock()
	_, v, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	next := !v.GetBool(key)

	if s.file != "" {
		err = s.persist(key, next)
	} else {
		s.overrides[key] = next
	}
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	return next, s.Reload()
}

// persist writes one key into the config file, leaving every other key of the
// file as it was.
func (s *Store) persist(key string, value any) error {
	fv := viper.New()
	fv.SetConfigFile(s.file)
	if err := fv.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config file %s: %w", s.file, err)
	}
	fv.Set(key, value)
	if err := fv.WriteConfigAs(s.file); err != nil {
		return fmt.Errorf("failed to save config file %s: %w", s.file, err)
	}
	return nil
}

// Watch reloads the store whenever the config file changes and then calls fn.
func (s *Store) Watch(fn func(Config)) error {
	if s.file == "" {
		return ErrNoConfigFile
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w := viper.New()
	w.SetConfigFile(s.file)
	if err := w.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", s.file, err)
	}
	w.OnConfigChange(func(fsnotify.Event) {
		if err := s.Reload(); err != nil {
			return
		}
		if fn != nil {
			fn(s.Snapshot())
		}
	})
	w.WatchConfig()
	s.watcher = w
	return nil
}
