// Package pass stores secrets in the standard unix password manager
// pass(1), the preferred vault backend when it is installed.
package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/keeperbot/monzoo-keeper/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

type execFunc func(ctx context.Context, stdin string, args ...string) (stdout, stderr string, err error)

type Store struct {
	execute execFunc
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{execute: runPass}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.execute(ctx, "", "show", key)
	if err != nil {
		return "", commandError("show", key, err, stderr)
	}

	return strings.TrimRight(stdout, "\r\n"), nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, stderr, err := s.execute(ctx, value+"\n", "insert", "-m", "-f", key); err != nil {
		return commandError("insert", key, err, stderr)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, stderr, err := s.execute(ctx, "", "rm", "-f", key); err != nil {
		return commandError("rm", key, err, stderr)
	}

	return nil
}

func runPass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	binary, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func commandError(op, key string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, key, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, key, err, stderr)
}
