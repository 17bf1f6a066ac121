package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narreyes/internal/domain/services"
	"narreyes/internal/repository/memory"
	"narreyes/internal/service/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	cmd := rootCmd()
	for _, name := range []string{"serve", "migrate", "reset", "seed", "generate", "version"} {
		found, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "narreyes version "+Version)
}

func TestResetRequiresConfirmation(t *testing.T) {
	_, err := execute(t, "reset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestGenerateRequiresPrompt(t *testing.T) {
	_, err := execute(t, "generate")
	assert.Error(t, err)
}

func TestEnsureTestUserIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	creds := auth.NewCredentialService(store.Users(), logger)
	ctx := context.Background()

	require.NoError(t, ensureTestUser(ctx, creds, logger))
	require.NoError(t, ensureTestUser(ctx, creds, logger))

	user, err := creds.Authenticate(ctx, &services.LoginRequest{Username: testUsername, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, testEmail, user.Email)
}
