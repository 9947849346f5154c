package answers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Credentials is the LMS login pair. It is stored as plain text.
type Credentials struct {
	Login    string
	Password string
}

// Prompter asks the operator for a value.
type Prompter interface {
	Ask(ctx context.Context, label string) (string, error)
	AskSecret(ctx context.Context, label string) (string, error)
}

// CredentialStore persists credentials as two lines: login, then password.
type CredentialStore struct {
	Path   string
	Logger *zap.Logger
}

// Load reads the stored credentials.
func (s CredentialStore) Load() (Credentials, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return Credentials{}, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(lines) < 2 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Credentials{}, err
	}
	if len(lines) < 2 {
		return Credentials{}, errors.New("credentials file needs a login line and a password line")
	}
	return Credentials{Login: lines[0], Password: lines[1]}, nil
}

// Save writes the credentials, replacing any previous file.
func (s CredentialStore) Save(c Credentials) error {
	return os.WriteFile(s.Path, []byte(c.Login+"\n"+c.Password), 0o600)
}

// Resolve returns the stored credentials, or asks the operator for them and
// stores the answer. A failed save is logged, not returned.
func (s CredentialStore) Resolve(ctx context.Context, p Prompter) (Credentials, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if c, err := s.Load(); err == nil {
		logger.Debug("Using stored credentials.", zap.String("path", s.Path))
		return c, nil
	}

	login, err := p.Ask(ctx, "LMS login: ")
	if err != nil {
		return Credentials{}, fmt.Errorf("ask login: %w", err)
	}
	password, err := p.AskSecret(ctx, "LMS password: ")
	if err != nil {
		return Credentials{}, fmt.Errorf("ask password: %w", err)
	}
	c := Credentials{Login: login, Password: password}
	if err := s.Save(c); err != nil {
		logger.Warn("Could not store credentials.", zap.String("path", s.Path), zap.Error(err))
	}
	return c, nil
}
