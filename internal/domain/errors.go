package domain

import "errors"

var (
	ErrMissingClientCredentials = errors.New("client id or client secret is missing")
	ErrMissingScopes            = errors.New("no scopes configured")
	ErrMissingScope             = errors.New("missing required scope")
	ErrNotAuthenticated         = errors.New("not authenticated")
	ErrReauthRequired           = errors.New("twitch authorization must be renewed")
	ErrNoSession                = errors.New("no active eventsub session")
)
