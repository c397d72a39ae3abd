package credential_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/credential"
	"github.com/tendant/community-content/pkg/communitycontent/repo/memory"
	"golang.org/x/crypto/bcrypt"
)

const operatorEmail = "root@x.com"

func setup(t *testing.T) (*credential.Rotator, *memory.CredentialStore, *credential.BcryptHasher) {
	t.Helper()
	hasher := &credential.BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("old-secret")
	require.NoError(t, err)

	store := memory.NewCredentialStore()
	store.Put(operatorEmail, hash)
	return credential.NewRotator(store, credential.WithHasher(hasher)), store, hasher
}

func TestBcryptHasher(t *testing.T) {
	h := &credential.BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("s3cret-value")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-value", hash)
	assert.True(t, h.Verify(hash, "s3cret-value"))
	assert.False(t, h.Verify(hash, "other"))
	assert.False(t, h.Verify("not-a-hash", "s3cret-value"))
}

func TestRotate_Success(t *testing.T) {
	rotator, store, hasher := setup(t)
	ctx := context.Background()

	require.NoError(t, rotator.Rotate(ctx, communitycontent.NewOperator(operatorEmail), "old-secret", "new-secret"))

	cred, err := store.GetCredential(ctx, operatorEmail)
	require.NoError(t, err)
	assert.True(t, hasher.Verify(cred.PasswordHash, "new-secret"))
	assert.False(t, hasher.Verify(cred.PasswordHash, "old-secret"))
}

func TestRotate_AcceptsSecretAtBcryptLimit(t *testing.T) {
	rotator, store, hasher := setup(t)
	ctx := context.Background()
	next := strings.Repeat("a", credential.MaxSecretBytes)

	require.NoError(t, rotator.Rotate(ctx, communitycontent.NewOperator(operatorEmail), "old-secret", next))

	cred, err := store.GetCredential(ctx, operatorEmail)
	require.NoError(t, err)
	assert.True(t, hasher.Verify(cred.PasswordHash, next))
}

func TestRotate_WrongSecretLeavesHashUnchanged(t *testing.T) {
	rotator, store, _ := setup(t)
	ctx := context.Background()

	before, err := store.GetCredential(ctx, operatorEmail)
	require.NoError(t, err)

	err = rotator.Rotate(ctx, communitycontent.NewOperator(operatorEmail), "wrong", "new-secret")
	assert.ErrorIs(t, err, communitycontent.ErrInvalidCredential)

	after, err := store.GetCredential(ctx, operatorEmail)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestRotate_Errors(t *testing.T) {
	rotator, _, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		principal communitycontent.Principal
		current   string
		next      string
		want      error
	}{
		{"anonymous", communitycontent.Anonymous(), "old-secret", "new-secret", communitycontent.ErrUnauthorized},
		{"plain user", communitycontent.NewUser(operatorEmail), "old-secret", "new-secret", communitycontent.ErrUnauthorized},
		{"short secret", communitycontent.NewOperator(operatorEmail), "old-secret", "short", communitycontent.ErrValidation},
		{"secret over bcrypt limit", communitycontent.NewOperator(operatorEmail), "old-secret", strings.Repeat("a", credential.MaxSecretBytes+1), communitycontent.ErrValidation},
		{"multibyte secret over limit", communitycontent.NewOperator(operatorEmail), "old-secret", strings.Repeat("é", 40), communitycontent.ErrValidation},
		{"unknown operator", communitycontent.NewOperator("nobody@x.com"), "old-secret", "new-secret", communitycontent.ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rotator.Rotate(ctx, tt.principal, tt.current, tt.next)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRotate_ConcurrentRotationsOneWins(t *testing.T) {
	rotator, store, hasher := setup(t)
	operator := communitycontent.NewOperator(operatorEmail)

	secrets := []string{"first-secret", "second-secret", "third-secret", "fourth-secret"}
	var wg sync.WaitGroup
	errs := make([]error, len(secrets))
	for i, s := range secrets {
		wg.Add(1)
		go func(i int, s string) {
			defer wg.Done()
			errs[i] = rotator.Rotate(context.Background(), operator, "old-secret", s)
		}(i, s)
	}
	wg.Wait()

	cred, err := store.GetCredential(context.Background(), operatorEmail)
	require.NoError(t, err)

	var winners int
	for i, err := range errs {
		if err == nil {
			winners++
			assert.True(t, hasher.Verify(cred.PasswordHash, secrets[i]))
			continue
		}
		// Losers either saw the swapped hash or lost the compare-and-swap.
		assert.True(t,
			errors.Is(err, communitycontent.ErrInvalidCredential) || errors.Is(err, communitycontent.ErrConflict),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, winners)
}

