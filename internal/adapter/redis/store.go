package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/energypatrikhu/obs-ui/internal/domain"
	"github.com/energypatrikhu/obs-ui/internal/platform/crypto"
	goredis "github.com/redis/go-redis/v9"
)

const (
	credentialsKey = "obs-ui:credentials"
	widgetsKey     = "obs-ui:widgets"
)

// Store implements domain.CredentialStore and domain.WidgetStore with one
// JSON value per document.
type Store struct {
	rdb           goredis.Cmdable
	defaultScopes []string
	sealer        crypto.Sealer
}

type StoreOption func(*Store)

// WithSealer seals the secret fields of the credential record. Records
// written without a sealer are still readable.
func WithSealer(sealer crypto.Sealer) StoreOption {
	return func(s *Store) { s.sealer = sealer }
}

func NewStore(rdb goredis.Cmdable, defaultScopes []string, opts ...StoreOption) *Store {
	s := &Store{rdb: rdb, defaultScopes: slices.Clone(defaultScopes), sealer: crypto.Plaintext{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCredentials seeds an empty record with the default scopes when none is
// stored yet.
func (s *Store) GetCredentials(ctx context.Context) (domain.Credentials, error) {
	creds := domain.Credentials{Scope: slices.Clone(s.defaultScopes)}
	if err := s.getOrSeed(ctx, credentialsKey, &creds); err != nil {
		return domain.Credentials{}, err
	}
	if err := transformSecrets(&creds, s.sealer.Open); err != nil {
		return domain.Credentials{}, fmt.Errorf("failed to open credentials: %w", err)
	}
	return creds, nil
}

func (s *Store) SaveCredentials(ctx context.Context, creds domain.Credentials) error {
	creds = creds.Clone()
	if err := transformSecrets(&creds, s.sealer.Seal); err != nil {
		return fmt.Errorf("failed to seal credentials: %w", err)
	}
	return s.set(ctx, credentialsKey, creds)
}

// transformSecrets applies fn to every field that grants access to the
// account. client_id and scope stay readable.
func transformSecrets(creds *domain.Credentials, fn func(string) (string, error)) error {
	for _, field := range []*string{&creds.ClientSecret, &creds.Code, &creds.AccessToken, &creds.RefreshToken} {
		v, err := fn(*field)
		if err != nil {
			return err
		}
		*field = v
	}
	return nil
}

func (s *Store) GetWidgetSettings(ctx context.Context) (domain.WidgetSettings, error) {
	settings := domain.DefaultWidgetSettings()
	if err := s.getOrSeed(ctx, widgetsKey, &settings); err != nil {
		return domain.WidgetSettings{}, err
	}
	return settings, nil
}

func (s *Store) SaveWidgetSettings(ctx context.Context, settings domain.WidgetSettings) error {
	return s.set(ctx, widgetsKey, settings)
}

// getOrSeed decodes key into v. A missing key is created from the current
// value of v; SETNX keeps a concurrent writer's value.
func (s *Store) getOrSeed(ctx context.Context, key string, v any) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		seed, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		created, err := s.rdb.SetNX(ctx, key, seed, 0).Result()
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", key, err)
		}
		if created {
			return nil
		}
		data, err = s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

func (s *Store) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
