package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
)

const tokensFile = "tokens.yaml"

// Tokens are the locally held session artifacts. HttpOnly cookies set by
// the provider never reach this process; these are the only artifacts
// client-side logout can clear.
type Tokens struct {
	AccessToken string    `yaml:"access_token,omitempty"`
	IDToken     string    `yaml:"id_token,omitempty"`
	Code        string    `yaml:"code,omitempty"`
	SavedAt     time.Time `yaml:"saved_at"`
}

// Store persists session tokens in the studio configuration directory.
type Store struct {
	dir string
}

// NewStore creates a token store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, tokensFile)
}

// Save writes tokens with owner-only permissions.
func (s *Store) Save(t Tokens) error {
	if t.SavedAt.IsZero() {
		t.SavedAt = time.Now()
	}

	data, err := yaml.Marshal(t)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "marshal tokens", err)
	}
	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("write %s", s.path()), err)
	}
	return nil
}

// Load reads the stored tokens. A missing file yields empty tokens, not
// an error; an unreadable file is an error.
func (s *Store) Load() (Tokens, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return Tokens{}, nil
		}
		return Tokens{}, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("read %s", s.path()), err)
	}

	var t Tokens
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tokens{}, errors.Wrap(errors.ErrCodeFileReadFailed, fmt.Sprintf("parse %s", s.path()), err)
	}
	return t, nil
}

// Clear removes the stored tokens. Idempotent: clearing an already-empty
// store succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, fmt.Sprintf("remove %s", s.path()), err)
	}
	return nil
}

// SaveArtifact persists whatever a redirect-back handed over.
func (s *Store) SaveArtifact(a Artifact) error {
	return s.Save(Tokens{
		AccessToken: a.AccessToken,
		IDToken:     a.IDToken,
		Code:        a.Code,
	})
}

// Bearer returns the token to present to the backend, preferring the
// access token.
func (t Tokens) Bearer() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.IDToken
}
