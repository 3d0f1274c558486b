package credentials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

// ErrPassUnavailable means the pass binary is not on PATH.
var ErrPassUnavailable = errors.New("pass is not installed")

const passMissingEntry = "is not in the password store"

type runFunc func(ctx context.Context, stdin string, args ...string) (stdout string, stderr string, err error)

// PassStore keeps tokens as entries in the user's password-store.
type PassStore struct {
	run runFunc
}

var _ ports.SecretStore = (*PassStore)(nil)

func NewPassStore() *PassStore {
	return &PassStore{run: execPass}
}

func (s *PassStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, stderr, err := s.run(ctx, "", "show", key)
	if err != nil {
		return "", passError("show", key, err, stderr)
	}

	// pass prints the whole entry; the token is the first line.
	token, _, _ := strings.Cut(out, "\n")
	return strings.TrimRight(token, "\r"), nil
}

func (s *PassStore) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, stderr, err := s.run(ctx, value+"\n", "insert", "--multiline", "--force", key); err != nil {
		return passError("insert", key, err, stderr)
	}
	return nil
}

func (s *PassStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "--force", key)
	if err != nil {
		if strings.Contains(stderr, passMissingEntry) {
			return nil
		}
		return passError("rm", key, err, stderr)
	}
	return nil
}

func execPass(ctx context.Context, stdin string, args ...string) (string, string, error) {
	bin, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrPassUnavailable
		}
		return "", "", fmt.Errorf("find pass: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func passError(op string, key string, err error, stderr string) error {
	switch {
	case strings.Contains(stderr, passMissingEntry):
		return fmt.Errorf("pass %s %s: %w", op, key, domain.ErrSecretNotFound)
	case stderr != "":
		return fmt.Errorf("pass %s %s: %w (%s)", op, key, err, stderr)
	default:
		return fmt.Errorf("pass %s %s: %w", op, key, err)
	}
}
