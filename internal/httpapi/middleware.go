package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/identity"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorFrom returns the authenticated actor placed by the auth middleware.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}

// AuthMiddleware resolves the bearer token to an actor before the handler
// runs. Every sync route except health and metrics sits behind it.
type AuthMiddleware struct {
	resolver identity.Resolver
	logger   *zap.Logger
}

func NewAuthMiddleware(resolver identity.Resolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, logger: logger}
}

// Wrap authenticates the request, rejecting with 401 when the token is
// missing or unknown.
func (m *AuthMiddleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		actor, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Websocket clients cannot set headers from the browser, so the
	// token may also arrive as a query parameter.
	return r.URL.Query().Get("token")
}

// mustActor fetches the actor or replies 401. Handlers behind Wrap always
// find one; this guards direct handler tests.
func mustActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := ActorFrom(r.Context())
	if !ok {
		writeError(w, identity.ErrUnauthenticated)
		return domain.Actor{}, false
	}
	return actor, true
}
