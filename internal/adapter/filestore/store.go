// Package filestore keeps the Twitch credentials and the widget settings as
// JSON documents in a local data directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/energypatrikhu/obs-ui/internal/domain"
)

const (
	CredentialsFile = "credentials.json"
	WidgetsFile     = "widgets.json"
)

// Store implements domain.CredentialStore and domain.WidgetStore. Missing
// files are created with defaults on first access. Writes replace the file
// atomically.
type Store struct {
	dir           string
	defaultScopes []string

	mu sync.Mutex
}

// New returns a store rooted at dir. defaultScopes seeds the scope list of a
// fresh credentials file.
func New(dir string, defaultScopes []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir, defaultScopes: slices.Clone(defaultScopes)}, nil
}

func (s *Store) GetCredentials(_ context.Context) (domain.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var creds domain.Credentials
	err := s.read(CredentialsFile, &creds)
	if errors.Is(err, fs.ErrNotExist) {
		creds = domain.Credentials{Scope: slices.Clone(s.defaultScopes)}
		if err := s.write(CredentialsFile, creds); err != nil {
			return domain.Credentials{}, err
		}
		slog.Warn("Created credentials file, fill in client_id and client_secret", "path", s.path(CredentialsFile))
		return creds, nil
	}
	if err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

func (s *Store) SaveCredentials(_ context.Context, creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(CredentialsFile, creds)
}

func (s *Store) GetWidgetSettings(_ context.Context) (domain.WidgetSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultWidgetSettings()
	err := s.read(WidgetsFile, &settings)
	if errors.Is(err, fs.ErrNotExist) {
		settings = domain.DefaultWidgetSettings()
		if err := s.write(WidgetsFile, settings); err != nil {
			return domain.WidgetSettings{}, err
		}
		return settings, nil
	}
	if err != nil {
		return domain.WidgetSettings{}, err
	}
	return settings, nil
}

func (s *Store) SaveWidgetSettings(_ context.Context, settings domain.WidgetSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(WidgetsFile, settings)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
