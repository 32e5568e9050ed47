// Package auth stores the provider credential used for chat requests.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"genui-gateway/internal/domain"
	"genui-gateway/internal/infra/config"
)

// MinTokenLength is the shortest token Validate accepts.
const MinTokenLength = 40

// acceptedPrefixes lists the token prefixes Validate accepts.
var acceptedPrefixes = []string{domain.SetupTokenPrefix, domain.APIKeyPrefix, domain.AnthropicPrefix}

// Source says where the active credential came from.
type Source string

const (
	SourceNone   Source = "none"
	SourceFile   Source = "file"
	SourceConfig Source = "config"
)

// credentialFile is the on-disk token document.
type credentialFile struct {
	Type        string `json:"type"`
	Provider    string `json:"provider"`
	Token       string `json:"token"`
	ProfileName string `json:"profile_name"`
}

// Status is the public view of the stored credential.
type Status struct {
	Authenticated bool                  `json:"authenticated"`
	Kind          domain.CredentialKind `json:"kind,omitempty"`
	Preview       string                `json:"preview,omitempty"`
	Source        Source                `json:"source"`
}

// TokenStore implements domain.CredentialStore with a JSON file and an
// optional static fallback token from configuration.
type TokenStore struct {
	path     string
	fallback string
	logger   *slog.Logger

	mu    sync.RWMutex
	token string // file token, empty when none is stored
}

var _ domain.CredentialStore = (*TokenStore)(nil)

// NewTokenStore loads the token file if it exists. A missing file is not an
// error; an unreadable or corrupt one is logged and ignored.
func NewTokenStore(cfg config.AuthConfig, logger *slog.Logger) *TokenStore {
	s := &TokenStore{
		path:     cfg.TokenFile,
		fallback: strings.TrimSpace(cfg.Token),
		logger:   logger,
	}
	if token, err := s.read(); err != nil {
		logger.Warn("ignoring unreadable token file", "path", s.path, "error", err)
	} else {
		s.token = token
	}
	return s
}

// Load returns the stored token, falling back to the configured one.
func (s *TokenStore) Load() (string, bool) {
	token, _ := s.active()
	return token, token != ""
}

func (s *TokenStore) active() (string, Source) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.token != "":
		return s.token, SourceFile
	case s.fallback != "":
		return s.fallback, SourceConfig
	default:
		return "", SourceNone
	}
}

// Validate checks the token shape. The error wraps domain.ErrAuthInvalid and
// its detail is safe to show to the user.
func (s *TokenStore) Validate(token string) error {
	return Validate(token)
}

// Validate checks the token shape without a store.
func Validate(raw string) error {
	const op = "auth.Validate"
	token := strings.TrimSpace(raw)
	if token == "" {
		return domain.NewDomainError(op, domain.ErrAuthInvalid, "Token is required")
	}
	if !hasAcceptedPrefix(token) {
		return domain.NewDomainError(op, domain.ErrAuthInvalid,
			"Expected token starting with one of: "+strings.Join(acceptedPrefixes, ", "))
	}
	if len(token) < MinTokenLength {
		return domain.NewDomainError(op, domain.ErrAuthInvalid, "Token looks too short")
	}
	return nil
}

func hasAcceptedPrefix(token string) bool {
	for _, p := range acceptedPrefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}

// IsAuthenticated reports whether a valid token is available.
func (s *TokenStore) IsAuthenticated() bool {
	token, ok := s.Load()
	return ok && Validate(token) == nil
}

// Status describes the active credential without revealing it.
func (s *TokenStore) Status() Status {
	token, source := s.active()
	if token == "" {
		return Status{Source: SourceNone}
	}
	return Status{
		Authenticated: Validate(token) == nil,
		Kind:          domain.ClassifyCredential(token),
		Preview:       Preview(token),
		Source:        source,
	}
}

// Save validates token and writes it to the token file with mode 0600.
func (s *TokenStore) Save(token, profile string) error {
	if err := Validate(token); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if profile == "" {
		profile = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(credentialFile{
		Type:        "token",
		Provider:    "anthropic",
		Token:       token,
		ProfileName: profile,
	}); err != nil {
		return domain.WrapOp("auth.Save", err)
	}
	s.token = token
	s.logger.Info("token saved", "kind", domain.ClassifyCredential(token), "profile", profile)
	return nil
}

// Delete removes the token file. It reports whether a stored token existed.
// The configured fallback token is not affected.
func (s *TokenStore) Delete() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed := s.token != ""
	if s.path != "" {
		err := os.Remove(s.path)
		switch {
		case err == nil:
			existed = true
		case !errors.Is(err, os.ErrNotExist):
			return false, domain.WrapOp("auth.Delete", err)
		}
	}
	s.token = ""
	if existed {
		s.logger.Info("token deleted")
	}
	return existed, nil
}

// Preview returns a display-safe form of token.
func Preview(token string) string {
	if len(token) < 20 {
		return "***"
	}
	return token[:15] + "..." + token[len(token)-4:]
}

// --- persistence ---

func (s *TokenStore) read() (string, error) {
	if s.path == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var cf credentialFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(s.path), err)
	}
	return strings.TrimSpace(cf.Token), nil
}

// write atomically replaces the token file.
func (s *TokenStore) write(cf credentialFile) error {
	if s.path == "" {
		return fmt.Errorf("no token file configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return os.Rename(tmp, s.path)
}
