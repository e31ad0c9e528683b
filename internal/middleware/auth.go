package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/gatelink/internal/auth"
	"github.com/serroba/gatelink/internal/handlers"
)

// Auth extracts a bearer session token, verifies it and stores the resulting
// identity in the request context. Requests without a valid token pass
// through anonymously; handlers decide whether authentication is required.
func Auth(authService *auth.Service) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := bearerToken(ctx.Header("Authorization"))
		if token != "" {
			newCtx := handlers.ContextWithAuthToken(ctx.Context(), token)

			if identity, err := authService.VerifyToken(token); err == nil {
				newCtx = handlers.ContextWithIdentity(newCtx, identity)
			}

			ctx = huma.WithContext(ctx, newCtx)
		}

		next(ctx)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "

	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
