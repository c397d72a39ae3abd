package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/credential"
	"github.com/tendant/community-content/pkg/communitycontent/identity"
	"github.com/tendant/community-content/pkg/communitycontent/moderation"
	"github.com/tendant/community-content/pkg/communitycontent/repo/memory"
	"github.com/tendant/community-content/pkg/communitycontent/stats"
	"golang.org/x/crypto/bcrypt"
)

const operatorEmail = "root@x.com"

type testServer struct {
	router   *chi.Mux
	gate     *identity.Gate
	repo     *memory.Repository
	creds    *memory.CredentialStore
	userJWT  string
	adminJWT string
}

func setupServer(t *testing.T, policy communitycontent.SubmissionPath) *testServer {
	t.Helper()

	repo := memory.New()
	roster := memory.NewRoster(communitycontent.RosterEntry{
		ID: "1", Email: "a@x.com", DisplayName: "Ada", CreatedAt: time.Now().Add(-time.Hour),
	})
	creds := memory.NewCredentialStore()
	hasher := &credential.BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := hasher.Hash("old-secret")
	require.NoError(t, err)
	creds.Put(operatorEmail, hash)

	gate, err := identity.NewGate("api-test-secret")
	require.NoError(t, err)

	svc, err := communitycontent.New(communitycontent.WithRepository(repo))
	require.NoError(t, err)

	router := chi.NewRouter()
	Mount(router, Dependencies{
		Gate:       gate,
		Content:    svc,
		Moderation: moderation.New(repo),
		Stats:      stats.New(repo, roster),
		Rotator:    credential.NewRotator(creds, credential.WithHasher(hasher)),
		Policy:     policy,
	})

	userJWT, err := gate.IssueToken("a@x.com", false, time.Hour)
	require.NoError(t, err)
	adminJWT, err := gate.IssueToken(operatorEmail, true, time.Hour)
	require.NoError(t, err)

	return &testServer{router: router, gate: gate, repo: repo, creds: creds, userJWT: userJWT, adminJWT: adminJWT}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func noteBody() communitycontent.SubmitRequest {
	return communitycontent.SubmitRequest{
		Kind:  communitycontent.KindNote,
		Title: "DS Unit1",
		Links: []string{"http://x"},
		Note:  &communitycontent.NoteFields{Subject: "DS", Unit: "1"},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSubmit_TrustedPolicyIsPublic(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionTrusted)

	w := s.do(t, http.MethodPost, "/content", s.userJWT, noteBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	item := decode[communitycontent.Item](t, w)
	assert.True(t, item.IsApproved)
	assert.Equal(t, "a@x.com", item.AuthorEmail)

	w = s.do(t, http.MethodGet, "/content?kind=note", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[ListResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, item.ID, list.Items[0].ID)
}

func TestSubmit_ValidationAndAuth(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionTrusted)

	w := s.do(t, http.MethodPost, "/content", "", noteBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	body := noteBody()
	body.Links = nil
	w = s.do(t, http.MethodPost, "/content", s.userJWT, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decode[ErrorBody](t, w)
	assert.Equal(t, "validation_error", errBody.Error.Code)
	assert.NotEmpty(t, errBody.Error.RequestID)

	w = s.do(t, http.MethodGet, "/content", "", nil)
	assert.Empty(t, decode[ListResponse](t, w).Items)
}

func TestProposal_IsPendingAndHidden(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionTrusted)

	w := s.do(t, http.MethodPost, "/content/proposals", s.userJWT, noteBody())
	require.Equal(t, http.StatusCreated, w.Code)
	item := decode[communitycontent.Item](t, w)
	assert.False(t, item.IsApproved)

	w = s.do(t, http.MethodGet, "/content", s.userJWT, nil)
	assert.Empty(t, decode[ListResponse](t, w).Items)

	w = s.do(t, http.MethodGet, "/content/"+item.ID.String(), s.userJWT, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/content/"+item.ID.String(), s.adminJWT, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/content/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListContent_OperatorSeesApprovedOnly(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionReview)

	w := s.do(t, http.MethodPost, "/content", s.userJWT, noteBody())
	require.Equal(t, http.StatusCreated, w.Code)
	pending := decode[communitycontent.Item](t, w)
	require.False(t, pending.IsApproved)

	w = s.do(t, http.MethodGet, "/content", s.adminJWT, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[ListResponse](t, w).Items)

	w = s.do(t, http.MethodPatch, "/admin/content/"+pending.ID.String(), s.adminJWT, map[string]bool{"approved": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/content", s.adminJWT, nil)
	list := decode[ListResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, pending.ID, list.Items[0].ID)
}

func TestAdmin_RotateCredentialTooLong(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionTrusted)

	w := s.do(t, http.MethodPost, "/admin/credential", s.adminJWT,
		RotateCredentialRequest{CurrentSecret: "old-secret", NewSecret: strings.Repeat("a", 80)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode[ErrorBody](t, w).Error.Code)

	cred, err := s.creds.GetCredential(context.Background(), operatorEmail)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte("old-secret")))
}

func TestAdmin_RequiresOperator(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionReview)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/admin/content"},
		{http.MethodGet, "/admin/content/pending"},
		{http.MethodPatch, "/admin/content/" + uuid.NewString()},
		{http.MethodDelete, "/admin/content/" + uuid.NewString()},
		{http.MethodGet, "/admin/stats"},
		{http.MethodGet, "/admin/contributors"},
		{http.MethodPost, "/admin/credential"},
	}
	for _, p := range paths {
		for _, token := range []string{"", s.userJWT} {
			w := s.do(t, p.method, p.path, token, map[string]bool{"approved": true})
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
		}
	}
}

func TestAdmin_ModerationFlow(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionReview)

	w := s.do(t, http.MethodPost, "/content", s.userJWT, noteBody())
	require.Equal(t, http.StatusCreated, w.Code)
	item := decode[communitycontent.Item](t, w)
	assert.False(t, item.IsApproved)

	w = s.do(t, http.MethodGet, "/admin/content?state=pending", s.adminJWT, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[moderation.ListItemsResponse](t, w)
	require.Len(t, page.Items, 1)

	w = s.do(t, http.MethodGet, "/admin/content/pending", s.adminJWT, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[ListResponse](t, w).Items, 1)

	path := "/admin/content/" + item.ID.String()
	w = s.do(t, http.MethodPatch, path, s.adminJWT, map[string]bool{"approved": true})
	require.Equal(t, http.StatusOK, w.Code)
	approved := decode[communitycontent.Item](t, w)
	assert.True(t, approved.IsApproved)

	// Approving again is idempotent.
	w = s.do(t, http.MethodPatch, path, s.adminJWT, map[string]bool{"approved": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, approved.UpdatedAt, decode[communitycontent.Item](t, w).UpdatedAt)

	w = s.do(t, http.MethodPatch, path, s.adminJWT, map[string]bool{"approved": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", decode[ErrorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPatch, path, s.adminJWT, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/content", "", nil)
	assert.Len(t, decode[ListResponse](t, w).Items, 1)

	w = s.do(t, http.MethodDelete, path, s.adminJWT, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, path, s.adminJWT, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/admin/content/"+uuid.NewString(), s.adminJWT, map[string]bool{"approved": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_StatsAndContributors(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionTrusted)

	project := communitycontent.SubmitRequest{
		Kind:    communitycontent.KindProject,
		Title:   "Tool",
		Links:   []string{"http://repo"},
		Project: &communitycontent.ProjectFields{TechStack: []string{"go"}},
	}
	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/content", s.userJWT, project)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(t, http.MethodGet, "/admin/stats", s.adminJWT, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[stats.Stats](t, w)
	assert.Equal(t, int64(2), got.TotalByKind[communitycontent.KindProject])
	assert.Equal(t, int64(0), got.TotalByKind[communitycontent.KindNote])
	assert.Equal(t, int64(1), got.TotalContributors)

	w = s.do(t, http.MethodGet, "/admin/contributors", s.adminJWT, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]stats.ContributorCount](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ada", rows[0].DisplayName)
	assert.Equal(t, int64(2), rows[0].Count)
}

func TestAdmin_RotateCredential(t *testing.T) {
	s := setupServer(t, communitycontent.SubmissionTrusted)

	w := s.do(t, http.MethodPost, "/admin/credential", s.adminJWT,
		RotateCredentialRequest{CurrentSecret: "wrong", NewSecret: "brand-new-secret"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_credential", decode[ErrorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPost, "/admin/credential", s.adminJWT,
		RotateCredentialRequest{CurrentSecret: "old-secret", NewSecret: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/admin/credential", s.adminJWT,
		RotateCredentialRequest{CurrentSecret: "old-secret", NewSecret: "brand-new-secret"})
	assert.Equal(t, http.StatusOK, w.Code)

	cred, err := s.creds.GetCredential(context.Background(), operatorEmail)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte("brand-new-secret")))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{communitycontent.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{&communitycontent.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest, "validation_error"},
		{communitycontent.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
		{communitycontent.ErrInvalidCredential, http.StatusBadRequest, "invalid_credential"},
		{&communitycontent.ItemError{Op: "get", Err: communitycontent.ErrNotFound}, http.StatusNotFound, "not_found"},
		{communitycontent.ErrConflict, http.StatusConflict, "conflict"},
		{communitycontent.StoreFailure("list", errors.New("dial tcp: refused")), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		status, code := classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestWriteError_HidesStoreCause(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	writeError(w, req, communitycontent.StoreFailure("list", errors.New("password authentication failed for user app")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "password authentication")
}
