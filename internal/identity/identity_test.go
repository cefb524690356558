package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

func TestStore_IssueAndResolve(t *testing.T) {
	store := NewStore()
	actor := domain.Actor{ID: "chw-1", Name: "Alice", Role: domain.RoleCHW}

	token := store.Issue(actor)
	require.NotEmpty(t, token)

	got, err := store.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestStore_UnknownTokenUnauthenticated(t *testing.T) {
	store := NewStore()

	_, err := store.Resolve(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestStore_RegisterDeterministicToken(t *testing.T) {
	store := NewStore()
	actor := domain.Actor{ID: "nurse-1", Role: domain.RoleNurse}
	store.Register("dev-nurse", actor)

	got, err := store.Resolve(context.Background(), "dev-nurse")
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestClient_ResolvesIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/api/v1/identity", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "mother-1", "role": "mother", "name": "Jane"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	actor, err := client.Resolve(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "mother-1", Role: domain.RoleMother, Name: "Jane"}, actor)
}

func TestClient_EmptyTokenShortCircuits(t *testing.T) {
	client := NewClient("http://auth.invalid", zap.NewNop())
	_, err := client.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_UnauthorizedMapsToUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.Resolve(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_MalformedIdentityRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "x-1", "role": "superuser"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.Resolve(context.Background(), "tok-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
