package domain

import "strings"

// CredentialKind is the shape of a stored provider credential. It decides
// which chat driver serves a request.
type CredentialKind string

const (
	CredentialUnknown    CredentialKind = "unknown"
	CredentialAPIKey     CredentialKind = "api_key"
	CredentialSetupToken CredentialKind = "setup_token"
)

// Credential prefixes, most specific first.
const (
	SetupTokenPrefix = "sk-ant-oat01-"
	APIKeyPrefix     = "sk-ant-api03-"
	AnthropicPrefix  = "sk-ant-"
)

// ClassifyCredential maps a token to its kind by prefix.
func ClassifyCredential(token string) CredentialKind {
	token = strings.TrimSpace(token)
	switch {
	case strings.HasPrefix(token, SetupTokenPrefix):
		return CredentialSetupToken
	case strings.HasPrefix(token, APIKeyPrefix), strings.HasPrefix(token, AnthropicPrefix):
		return CredentialAPIKey
	default:
		return CredentialUnknown
	}
}

// CredentialStore is the read side of the credential store used per request.
type CredentialStore interface {
	// Load returns the stored token, if any.
	Load() (string, bool)
	// Validate returns a DomainError wrapping ErrAuthInvalid when token is malformed.
	Validate(token string) error
}
