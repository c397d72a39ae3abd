package communitycontent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/repo/memory"
)

func noteRequest() communitycontent.SubmitRequest {
	return communitycontent.SubmitRequest{
		Kind:  communitycontent.KindNote,
		Title: "DS Unit1",
		Links: []string{"http://x"},
		Note:  &communitycontent.NoteFields{Subject: "DS", Unit: "1"},
	}
}

func setupService(t *testing.T) (communitycontent.Service, *memory.Repository) {
	t.Helper()
	repo := memory.New()
	svc, err := communitycontent.New(communitycontent.WithRepository(repo))
	require.NoError(t, err)
	return svc, repo
}

func TestNew_RequiresRepository(t *testing.T) {
	_, err := communitycontent.New()
	assert.Error(t, err)
}

func TestService_SubmitTrustedIsVisible(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	author := communitycontent.NewUser("A@x.com")

	item, err := svc.Submit(ctx, author, noteRequest(), communitycontent.SubmissionTrusted)
	require.NoError(t, err)
	assert.True(t, item.IsApproved)
	assert.Equal(t, "a@x.com", item.AuthorEmail)
	assert.False(t, item.CreatedAt.IsZero())

	visible, err := svc.ListVisible(ctx, communitycontent.Anonymous(), communitycontent.ListRequest{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, item.ID, visible[0].ID)
}

func TestService_SubmitMissingLink(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	req := noteRequest()
	req.Links = []string{"  "}
	_, err := svc.Submit(ctx, communitycontent.NewUser("a@x.com"), req, communitycontent.SubmissionTrusted)
	assert.ErrorIs(t, err, communitycontent.ErrValidation)

	var vErr *communitycontent.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "links", vErr.Field)

	all, err := repo.ListItems(ctx, communitycontent.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_SubmitRequiresAuthentication(t *testing.T) {
	svc, repo := setupService(t)

	_, err := svc.Submit(context.Background(), communitycontent.Anonymous(), noteRequest(), communitycontent.SubmissionTrusted)
	assert.ErrorIs(t, err, communitycontent.ErrUnauthorized)

	all, err := repo.ListItems(context.Background(), communitycontent.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_PendingHiddenFromPublicListing(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	author := communitycontent.NewUser("a@x.com")

	pending, err := svc.Submit(ctx, author, noteRequest(), communitycontent.SubmissionReview)
	require.NoError(t, err)
	assert.False(t, pending.IsApproved)

	for _, p := range []communitycontent.Principal{communitycontent.Anonymous(), author} {
		items, err := svc.ListVisible(ctx, p, communitycontent.ListRequest{})
		require.NoError(t, err)
		assert.Empty(t, items)

		_, err = svc.Get(ctx, p, pending.ID)
		assert.ErrorIs(t, err, communitycontent.ErrNotFound)
	}

	op := communitycontent.NewOperator("op@x.com")
	items, err := svc.ListVisible(ctx, op, communitycontent.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)

	got, err := svc.Get(ctx, op, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)
}

func TestService_ListVisibleByKind(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	author := communitycontent.NewUser("a@x.com")

	_, err := svc.Submit(ctx, author, noteRequest(), communitycontent.SubmissionTrusted)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, author, communitycontent.SubmitRequest{
		Kind:    communitycontent.KindProject,
		Title:   "Tracker",
		Links:   []string{"https://github.com/x/tracker"},
		Project: &communitycontent.ProjectFields{TechStack: []string{"go", "postgres"}},
	}, communitycontent.SubmissionTrusted)
	require.NoError(t, err)

	kind := communitycontent.KindProject
	items, err := svc.ListVisible(ctx, communitycontent.Anonymous(), communitycontent.ListRequest{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"go", "postgres"}, items[0].Project.TechStack)

	bad := communitycontent.Kind("video")
	_, err = svc.ListVisible(ctx, communitycontent.Anonymous(), communitycontent.ListRequest{Kind: &bad})
	assert.ErrorIs(t, err, communitycontent.ErrValidation)
}

func TestService_GetNotFound(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Get(context.Background(), communitycontent.Anonymous(), uuid.New())
	assert.ErrorIs(t, err, communitycontent.ErrNotFound)

	var itemErr *communitycontent.ItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, "get", itemErr.Op)
}

type failingRepo struct {
	*memory.Repository
}

func (f failingRepo) ListItems(ctx context.Context, filter communitycontent.ItemFilter) ([]*communitycontent.Item, error) {
	return nil, errors.New("connection refused")
}

func (f failingRepo) InsertItem(ctx context.Context, item *communitycontent.Item) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestService_StoreFailuresBecomeStoreUnavailable(t *testing.T) {
	svc, err := communitycontent.New(
		communitycontent.WithRepository(failingRepo{memory.New()}),
		communitycontent.WithStoreTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.ListVisible(ctx, communitycontent.Anonymous(), communitycontent.ListRequest{})
	assert.ErrorIs(t, err, communitycontent.ErrStoreUnavailable)

	_, err = svc.Submit(ctx, communitycontent.NewUser("a@x.com"), noteRequest(), communitycontent.SubmissionTrusted)
	assert.ErrorIs(t, err, communitycontent.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
