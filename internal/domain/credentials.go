package domain

import (
	"context"
	"slices"
)

// Credentials is the single OAuth record of the broadcaster. The JSON layout
// matches data/credentials.json.
type Credentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scope        []string `json:"scope"`
	Code         string   `json:"code"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

// Clone returns a copy that shares no slices with c.
func (c Credentials) Clone() Credentials {
	c.Scope = slices.Clone(c.Scope)
	return c
}

// CredentialStore persists the credential record.
type CredentialStore interface {
	GetCredentials(ctx context.Context) (Credentials, error)
	SaveCredentials(ctx context.Context, creds Credentials) error
}
