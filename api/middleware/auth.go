package middleware

import (
	"net/http"
	"strings"

	"github.com/agritrace/agritrace-backend/api/responses"
	"github.com/agritrace/agritrace-backend/internal/authz"
	pkgauth "github.com/agritrace/agritrace-backend/pkg/auth"
	"github.com/agritrace/agritrace-backend/pkg/config"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the actor.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := authz.Actor{
				ID:   claims.ActorID,
				Name: claims.ActorName,
				Role: claims.Role,
			}

			ctx := WithActor(r.Context(), actor)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actor.ID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
